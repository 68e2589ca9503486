// Package console is the interactive front end: pick an image, annotate it in the
// background, read the labels.
package console

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/apex/log"
	"github.com/google/uuid"

	"plantapp/labels"
	"plantapp/service"
)

const (
	// Source tags requests coming from the console in logs, metrics and events.
	Source = "console"

	authHint = "This can happen if authentication is not set up correctly."
	helpText = `Commands:
  open <path>   select a .jpg, .jpeg, .png or .gif image
  annotate      label the selected image
  help          show this message
  quit          leave (also: exit)`
)

// ImageExtensions are the file types open accepts.
var ImageExtensions = []string{".jpg", ".jpeg", ".png", ".gif"}

// FileLabeler labels the image stored at a path; *service.Service in production.
type FileLabeler interface {
	LabelFile(ctx context.Context, req service.Request, path string) ([]labels.Label, error)
}

// Session holds the console state: the selected image and the annotate trigger.
// Output from background runs is serialized with the prompt's own output.
type Session struct {
	labeler FileLabeler
	trigger Trigger
	wg      sync.WaitGroup

	mu       sync.Mutex
	out      io.Writer
	selected string
}

// NewSession creates a session writing to out.
func NewSession(labeler FileLabeler, out io.Writer) *Session {
	return &Session{labeler: labeler, out: out}
}

// Selected returns the path of the selected image, or "".
func (s *Session) Selected() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// Busy reports whether an annotation is running.
func (s *Session) Busy() bool {
	return !s.trigger.Enabled()
}

// Wait blocks until the running annotation, if any, has printed its result.
func (s *Session) Wait() {
	s.wg.Wait()
}

// Close waits for the running annotation to print its result. The trigger is enabled
// again before the result is printed, so the wait does not depend on Busy.
func (s *Session) Close() {
	if s.Busy() {
		s.println("Waiting for the running annotation...")
	}
	s.Wait()
}

// Handle runs one input line. It returns false once the user asked to leave.
func (s *Session) Handle(ctx context.Context, line string) bool {
	cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(cmd) {
	case "":
	case "open":
		s.open(arg)
	case "annotate":
		s.annotate(ctx)
	case "help", "?":
		s.println(helpText)
	case "quit", "exit":
		return false
	default:
		s.println(fmt.Sprintf("Unknown command %q. Type 'help' for the list.", cmd))
	}
	return true
}

func (s *Session) open(path string) {
	if path == "" {
		s.println("Usage: open <path>")
		return
	}
	path = expandHome(path)
	if !IsImagePath(path) {
		s.println(fmt.Sprintf("'%s' is not an image file (jpg, jpeg, png, gif).", filepath.Base(path)))
		return
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		s.println(fmt.Sprintf("Cannot open '%s'.", path))
		return
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}

	s.mu.Lock()
	s.selected = path
	s.mu.Unlock()

	s.println(path)
	s.println(fmt.Sprintf("Ready to annotate '%s'.", filepath.Base(path)))
}

func (s *Session) annotate(ctx context.Context) {
	path := s.Selected()
	if path == "" {
		s.println("No image selected. Use 'open <path>' first.")
		return
	}
	name := filepath.Base(path)
	req := service.Request{ID: uuid.NewString(), Source: Source, Filename: name}

	s.wg.Add(1)
	err := s.trigger.Fire(ctx, func(ctx context.Context) ([]labels.Label, error) {
		return s.labeler.LabelFile(ctx, req, path)
	}, func(result []labels.Label, err error) {
		defer s.wg.Done()
		s.finish(result, err)
	})
	if err != nil {
		s.wg.Done()
		s.println("Annotating... please wait for the current image.")
		return
	}
	s.println(fmt.Sprintf("Contacting Google Vision API for '%s'...", name))
}

func (s *Session) finish(result []labels.Label, err error) {
	if err == nil {
		s.println(labels.Detailed.Display(result, nil))
		return
	}

	log.WithError(err).WithField("kind", labels.KindOf(err).String()).Debug("Annotation failed")
	text := labels.Detailed.Display(nil, err)
	s.println(text)
	s.println(alertBox("API Error", text+"\n\n"+authHint))
}

func (s *Session) println(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintln(s.out, text)
}

// IsImagePath reports whether path has one of ImageExtensions, ignoring case.
func IsImagePath(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range ImageExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

func alertBox(title, text string) string {
	lines := append([]string{title, ""}, strings.Split(text, "\n")...)
	width := 0
	for _, l := range lines {
		if n := len([]rune(l)); n > width {
			width = n
		}
	}

	border := "+" + strings.Repeat("-", width+2) + "+"
	var b strings.Builder
	b.WriteString(border)
	b.WriteString("\n")
	for _, l := range lines {
		b.WriteString("| ")
		b.WriteString(l)
		b.WriteString(strings.Repeat(" ", width-len([]rune(l))))
		b.WriteString(" |\n")
	}
	b.WriteString(border)
	return b.String()
}
