package domain

// Job is the labeling job a session is bound to. Frame bounds are optional;
// a nil bound means the job did not report one.
type Job struct {
	ID         string `json:"id"`
	Name       string `json:"name,omitempty"`
	StartFrame *int   `json:"startFrame,omitempty"`
	StopFrame  *int   `json:"stopFrame,omitempty"`
}

// Label is one entry of a job's label catalog.
type Label struct {
	ID    string `json:"id"`
	JobID string `json:"jobId,omitempty"`
	Name  string `json:"name"`
}
