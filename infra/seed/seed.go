// Package seed loads master data (tractors, drivers, reference directories
// and trip templates) from YAML or JSON files into a store.
package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/fleetops/core/logger"
	"github.com/kilianp07/fleetops/core/model"
	"github.com/kilianp07/fleetops/core/store"
)

// Tractor is a tractor entry. Active defaults to true and State to
// OPERATIONAL.
type Tractor struct {
	ID     string             `json:"id" yaml:"id"`
	Plate  string             `json:"plate" yaml:"plate"`
	Active *bool              `json:"active,omitempty" yaml:"active,omitempty"`
	State  model.TractorState `json:"state,omitempty" yaml:"state,omitempty"`
}

// Driver is a driver entry, optionally bound to a tractor.
type Driver struct {
	ID      string `json:"id" yaml:"id"`
	Name    string `json:"name" yaml:"name"`
	Active  *bool  `json:"active,omitempty" yaml:"active,omitempty"`
	Tractor string `json:"tractor,omitempty" yaml:"tractor,omitempty"`
}

// Ref is a reference directory entry.
type Ref struct {
	ID     string `json:"id" yaml:"id"`
	Name   string `json:"name" yaml:"name"`
	Active *bool  `json:"active,omitempty" yaml:"active,omitempty"`
}

// File is the document layout of a seed file.
type File struct {
	Tractors     []Tractor        `json:"tractors" yaml:"tractors"`
	Drivers      []Driver         `json:"drivers" yaml:"drivers"`
	Materials    []Ref            `json:"materials" yaml:"materials"`
	Clients      []Ref            `json:"clients" yaml:"clients"`
	Origins      []Ref            `json:"origins" yaml:"origins"`
	Destinations []Ref            `json:"destinations" yaml:"destinations"`
	Templates    []model.Template `json:"templates" yaml:"templates"`
}

// Summary counts what Apply wrote.
type Summary struct {
	Tractors  int            `json:"tractors"`
	Drivers   int            `json:"drivers"`
	Refs      map[string]int `json:"refs"`
	Templates int            `json:"templates"`
}

// Load reads a seed file, choosing the decoder from its extension.
func Load(path string) (File, error) {
	f, err := os.Open(path)
	if err != nil {
		return File{}, err
	}
	defer func() { _ = f.Close() }()
	return Decode(f, strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."))
}

// Decode reads a seed document in the given format (yaml, yml or json).
func Decode(r io.Reader, format string) (File, error) {
	var doc File
	switch strings.ToLower(format) {
	case "yaml", "yml":
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&doc); err != nil && err != io.EOF {
			return doc, fmt.Errorf("decode seed: %w", err)
		}
	case "json":
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&doc); err != nil {
			return doc, fmt.Errorf("decode seed: %w", err)
		}
	default:
		return doc, fmt.Errorf("unsupported seed format: %s", format)
	}
	return doc, nil
}

func active(b *bool) bool { return b == nil || *b }

// Validate checks identifiers and cross references inside the document.
func (f File) Validate() error {
	tractors := map[string]bool{}
	for i, t := range f.Tractors {
		if t.ID == "" {
			return fmt.Errorf("tractors[%d]: id is required", i)
		}
		if t.State != "" && t.State != model.TractorOperational && t.State != model.TractorMaintenance {
			return fmt.Errorf("tractor %s: unknown state %q", t.ID, t.State)
		}
		tractors[t.ID] = true
	}
	bound := map[string]string{}
	for i, d := range f.Drivers {
		if d.ID == "" {
			return fmt.Errorf("drivers[%d]: id is required", i)
		}
		if d.Tractor == "" || !active(d.Active) {
			continue
		}
		if other, ok := bound[d.Tractor]; ok {
			return fmt.Errorf("tractor %s bound to both %s and %s", d.Tractor, other, d.ID)
		}
		bound[d.Tractor] = d.ID
	}
	for kind, refs := range f.refs() {
		for i, r := range refs {
			if r.ID == "" {
				return fmt.Errorf("%ss[%d]: id is required", kind, i)
			}
		}
	}
	for i, t := range f.Templates {
		if t.Name == "" || t.MaterialID == "" {
			return fmt.Errorf("templates[%d]: name and material_id are required", i)
		}
	}
	return nil
}

func (f File) refs() map[model.RefKind][]Ref {
	return map[model.RefKind][]Ref{
		model.RefMaterial:    f.Materials,
		model.RefClient:      f.Clients,
		model.RefOrigin:      f.Origins,
		model.RefDestination: f.Destinations,
	}
}

// Apply upserts the document into st in one transaction. Templates are
// matched by name and only inserted when missing.
func Apply(ctx context.Context, st store.Store, f File, log logger.Logger) (Summary, error) {
	if err := f.Validate(); err != nil {
		return Summary{}, err
	}
	sum := Summary{Refs: map[string]int{}}
	err := st.InTx(ctx, func(r store.Repo) error {
		for _, t := range f.Tractors {
			state := t.State
			if state == "" {
				state = model.TractorOperational
			}
			if err := r.UpsertTractor(ctx, model.Tractor{ID: t.ID, Plate: t.Plate, Active: active(t.Active), State: state}); err != nil {
				return fmt.Errorf("tractor %s: %w", t.ID, err)
			}
			sum.Tractors++
		}
		for _, kind := range model.RefKinds {
			for _, ref := range f.refs()[kind] {
				if err := r.UpsertRef(ctx, kind, model.Ref{ID: ref.ID, Name: ref.Name, Active: active(ref.Active)}); err != nil {
					return fmt.Errorf("%s %s: %w", kind, ref.ID, err)
				}
				sum.Refs[string(kind)]++
			}
		}
		// Unbind first so bindings can move between drivers within one file.
		for _, d := range f.Drivers {
			if _, err := r.GetDriver(ctx, d.ID); err == nil {
				if err := r.SetDriverTractor(ctx, d.ID, nil); err != nil {
					return fmt.Errorf("driver %s: %w", d.ID, err)
				}
			}
		}
		for _, d := range f.Drivers {
			var tractor *string
			if d.Tractor != "" {
				if _, err := r.GetTractor(ctx, d.Tractor); err != nil {
					return fmt.Errorf("driver %s: tractor %s: %w", d.ID, d.Tractor, err)
				}
				id := d.Tractor
				tractor = &id
			}
			if err := r.UpsertDriver(ctx, model.Driver{ID: d.ID, Name: d.Name, Active: active(d.Active), TractorID: tractor}); err != nil {
				return fmt.Errorf("driver %s: %w", d.ID, err)
			}
			sum.Drivers++
		}
		existing, err := r.ListTemplates(ctx, false)
		if err != nil {
			return err
		}
		names := make(map[string]bool, len(existing))
		for _, t := range existing {
			names[t.Name] = true
		}
		for _, t := range f.Templates {
			if names[t.Name] {
				continue
			}
			if _, err := r.GetRef(ctx, model.RefMaterial, t.MaterialID); err != nil {
				return fmt.Errorf("template %s: material %s: %w", t.Name, t.MaterialID, err)
			}
			t.Active = true
			if _, err := r.InsertTemplate(ctx, t); err != nil {
				return fmt.Errorf("template %s: %w", t.Name, err)
			}
			names[t.Name] = true
			sum.Templates++
		}
		return nil
	})
	if err != nil {
		return Summary{}, err
	}
	log.Infow("master data seeded", map[string]any{
		"tractors": sum.Tractors, "drivers": sum.Drivers, "templates": sum.Templates,
	})
	return sum, nil
}
