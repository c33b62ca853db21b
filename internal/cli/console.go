package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/soyeahso/annobot/internal/assistant"
	"github.com/soyeahso/annobot/internal/domain"
	"github.com/soyeahso/annobot/internal/hooks"
	"github.com/soyeahso/annobot/internal/markup"
	"github.com/soyeahso/annobot/internal/task"
)

// console drives one assistant session from a terminal.
type console struct {
	sess   *assistant.Session
	hooks  *hooks.Manager
	out    io.Writer
	render *markup.Renderer
	plain  bool
}

func newConsole(sess *assistant.Session, hm *hooks.Manager, out io.Writer, plain bool) *console {
	return &console{sess: sess, hooks: hm, out: out, render: markup.NewRenderer(), plain: plain}
}

func (c *console) printMessage(msg domain.Message) {
	if c.plain {
		fmt.Fprintf(c.out, "[%s] %s\n\n", msg.Role, markup.Strip(msg.Content))
		return
	}
	fmt.Fprintf(c.out, "%s\n\n", c.render.RenderMessage(msg))
}

func (c *console) note(format string, args ...any) {
	text := fmt.Sprintf(format, args...)
	if !c.plain {
		text = c.render.Muted.Render(text)
	}
	fmt.Fprintln(c.out, text)
}

// send submits text and prints the reply once the turn completes.
// A failed turn still prints the error reply and is returned as an error.
func (c *console) send(ctx context.Context, text string) error {
	turn, err := c.sess.Submit(ctx, text)
	if err != nil {
		return err
	}
	reply, err := turn.Wait(ctx)
	if err != nil {
		return err
	}
	c.printMessage(reply)
	if turn.Err() != nil {
		return fmt.Errorf("turn failed: %w", turn.Err())
	}
	return nil
}

// bindJob announces job to the session and loads its labels from the catalog.
func (c *console) bindJob(ctx context.Context, catalog jobCatalog, id string) error {
	job, err := catalog.GetJob(id)
	if err != nil {
		return err
	}
	labels, err := catalog.Labels(job.ID)
	if err != nil {
		return err
	}
	c.sess.SetLabels(labels)
	c.hooks.BindJob(ctx, c.sess.ID(), job)

	name := job.ID
	if job.Name != "" {
		name = fmt.Sprintf("%s (%s)", job.Name, job.ID)
	}
	c.note("Bound to job %s: %s, %d label(s)", name, c.sess.Config().FrameRange(), len(labels))
	return nil
}

type jobCatalog interface {
	GetJob(id string) (domain.Job, error)
	Labels(jobID string) ([]domain.Label, error)
}

const consoleHelp = `Commands:
  /type <type>          annotation type (rectangle, polygon, polyline, points, ellipse, mask)
  /frames <from> <to>   frame range
  /track [on|off]       toggle or set object tracking
  /labels [all|a,b,..]  list labels, or filter by label id or name
  /config               show the task configuration
  /clear                clear the conversation
  /help                 show this help
  /quit                 leave`

// command runs a slash command. It reports whether the loop should end.
func (c *console) command(line string) (quit bool) {
	name, arg, _ := strings.Cut(strings.TrimPrefix(line, "/"), " ")
	arg = strings.TrimSpace(arg)

	var err error
	switch strings.ToLower(name) {
	case "quit", "exit", "q":
		return true
	case "help", "?":
		fmt.Fprintln(c.out, consoleHelp)
	case "clear":
		c.sess.Clear()
		for _, msg := range c.sess.Messages() {
			c.printMessage(msg)
		}
	case "config":
		c.printConfig()
	case "type":
		err = c.setType(arg)
	case "frames":
		err = c.setFrames(arg)
	case "track":
		err = c.setTracking(arg)
	case "labels":
		err = c.labels(arg)
	default:
		err = fmt.Errorf("unknown command /%s (try /help)", name)
	}
	if err != nil {
		c.note("%v", err)
	}
	return false
}

func (c *console) update(p task.Patch) error {
	if _, err := c.sess.UpdateConfig(p); err != nil {
		return err
	}
	c.printConfig()
	return nil
}

func (c *console) setType(arg string) error {
	t, err := domain.ParseAnnotationType(arg)
	if err != nil {
		return err
	}
	return c.update(task.Patch{AnnotationType: &t})
}

func (c *console) setFrames(arg string) error {
	start, end, err := parseFrames(arg)
	if err != nil {
		return err
	}
	return c.update(task.Patch{FrameStart: &start, FrameEnd: &end})
}

func (c *console) setTracking(arg string) error {
	on := !c.sess.Config().EnableTracking
	switch strings.ToLower(arg) {
	case "":
	case "on", "true", "yes":
		on = true
	case "off", "false", "no":
		on = false
	default:
		return fmt.Errorf("usage: /track [on|off]")
	}
	return c.update(task.Patch{EnableTracking: &on})
}

func (c *console) labels(arg string) error {
	catalog := c.sess.Labels()
	switch arg {
	case "":
		if len(catalog) == 0 {
			c.note("No labels loaded (bind a job with --job)")
			return nil
		}
		selected := c.sess.Config().SelectedLabels
		for _, l := range catalog {
			mark := " "
			if slices.Contains(selected, l.ID) {
				mark = "x"
			}
			fmt.Fprintf(c.out, "  [%s] %s  %s\n", mark, l.ID, l.Name)
		}
		return nil
	case "all":
		none := []string{}
		return c.update(task.Patch{SelectedLabels: &none})
	}

	ids := resolveLabels(catalog, strings.Split(arg, ","))
	return c.update(task.Patch{SelectedLabels: &ids})
}

// resolveLabels maps label names to catalog IDs. Unknown entries pass
// through unchanged; selections are not checked against the catalog.
func resolveLabels(catalog []domain.Label, entries []string) []string {
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		id := e
		for _, l := range catalog {
			if strings.EqualFold(l.Name, e) {
				id = l.ID
				break
			}
		}
		if !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}
	return ids
}

func (c *console) printConfig() {
	tc := c.sess.Config()
	labels := "all"
	if len(tc.SelectedLabels) > 0 {
		labels = strings.Join(tc.SelectedLabels, ",")
	}
	tracking := "off"
	if tc.EnableTracking {
		tracking = "on"
	}
	c.note("type=%s %s tracking=%s labels=%s", tc.AnnotationType.Label(), tc.FrameRange(), tracking, labels)
}

func parseFrames(arg string) (start, end int, err error) {
	fields := strings.FieldsFunc(arg, func(r rune) bool { return r == ' ' || r == '-' || r == ',' })
	if len(fields) != 2 {
		return 0, 0, errors.New("usage: /frames <from> <to>")
	}
	if start, err = strconv.Atoi(fields[0]); err != nil {
		return 0, 0, fmt.Errorf("invalid start frame %q", fields[0])
	}
	if end, err = strconv.Atoi(fields[1]); err != nil {
		return 0, 0, fmt.Errorf("invalid end frame %q", fields[1])
	}
	return start, end, nil
}
