package planmanager

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/steelcutops/usergate/usergate/adjustment"
	"github.com/steelcutops/usergate/usergate/executor"
)

// Plan is the ordered list of adjustments computed for one host.
type Plan struct {
	ID          string
	Host        string
	Adjustments []adjustment.Adjustment
}

// HasChanges reports whether the plan contains any adjustment.
func (p *Plan) HasChanges() bool {
	return len(p.Adjustments) > 0
}

// Commands returns the rendered command line of every adjustment.
func (p *Plan) Commands() ([]string, error) {
	vectors, err := executor.Commands(p.Adjustments)
	if err != nil {
		return nil, err
	}
	lines := make([]string, 0, len(vectors))
	for _, argv := range vectors {
		lines = append(lines, strings.Join(argv, " "))
	}
	return lines, nil
}

// FormatText writes the plan as a comment header followed by one command
// line per adjustment.
func (p *Plan) FormatText(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "# %s (run %s)\n", p.Host, p.ID); err != nil {
		return err
	}
	if !p.HasChanges() {
		_, err := fmt.Fprintln(w, "# No changes. Users and groups are up-to-date.")
		return err
	}
	lines, err := p.Commands()
	if err != nil {
		return err
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

type jsonAdjustment struct {
	Kind    adjustment.Kind `json:"kind"`
	Name    string          `json:"name"`
	OldName string          `json:"old_name,omitempty"`
	ID      uint32          `json:"id"`
	GroupID *uint32         `json:"gid,omitempty"`
	Shell   string          `json:"shell,omitempty"`
	Command string          `json:"command"`
}

type jsonPlan struct {
	ID          string           `json:"id"`
	Host        string           `json:"host"`
	Adjustments []jsonAdjustment `json:"adjustments"`
}

func (p *Plan) MarshalJSON() ([]byte, error) {
	out := jsonPlan{ID: p.ID, Host: p.Host, Adjustments: []jsonAdjustment{}}
	lines, err := p.Commands()
	if err != nil {
		return nil, err
	}
	for i, a := range p.Adjustments {
		b := &jsonBuilder{adj: jsonAdjustment{
			Kind:    a.Kind(),
			Command: lines[i],
		}}
		if err := a.Accept(b); err != nil {
			return nil, err
		}
		out.Adjustments = append(out.Adjustments, b.adj)
	}
	return json.Marshal(out)
}

type jsonBuilder struct {
	adj jsonAdjustment
}

func (b *jsonBuilder) GroupChangeGID(a adjustment.GroupChangeGID) error {
	b.adj.Name, b.adj.ID = a.Group.Name, a.Group.ID
	return nil
}

func (b *jsonBuilder) GroupChangeName(a adjustment.GroupChangeName) error {
	b.adj.Name, b.adj.OldName, b.adj.ID = a.Group.Name, a.OldName, a.Group.ID
	return nil
}

func (b *jsonBuilder) GroupCreate(a adjustment.GroupCreate) error {
	b.adj.Name, b.adj.ID = a.Group.Name, a.Group.ID
	return nil
}

func (b *jsonBuilder) UserChangeUID(a adjustment.UserChangeUID) error {
	b.adj.Name, b.adj.ID = a.User.Name, a.User.ID
	return nil
}

func (b *jsonBuilder) UserChangeName(a adjustment.UserChangeName) error {
	b.adj.Name, b.adj.OldName, b.adj.ID = a.User.Name, a.OldName, a.User.ID
	return nil
}

func (b *jsonBuilder) UserCreate(a adjustment.UserCreate) error {
	gid := a.User.GroupID
	b.adj.Name, b.adj.ID, b.adj.GroupID = a.User.Name, a.User.ID, &gid
	return nil
}

func (b *jsonBuilder) UserChangeShell(a adjustment.UserChangeShell) error {
	b.adj.Name, b.adj.ID, b.adj.Shell = a.User.Name, a.User.ID, a.User.Shell
	return nil
}
