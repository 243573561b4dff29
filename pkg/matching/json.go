package matching

import (
	"encoding/json"

	"github.com/kinKKKdred/Matchingnetwork/pkg/units"
)

// JSON encoding renders complex impedances and reflection coefficients in the
// same j-notation the parsers accept, and enums as their display names.
// Encoding is one-way: consumers that need to re-solve a stored design submit
// a fresh Request.

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (k ComponentKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (p Placement) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (k LineKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (s PathSegment) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		From  string      `json:"from"`
		To    string      `json:"to"`
		Kind  SegmentKind `json:"kind"`
		Label string      `json:"label,omitempty"`
	}{
		From:  units.FormatComplex(s.From),
		To:    units.FormatComplex(s.To),
		Kind:  s.Kind,
		Label: s.Label,
	})
}

func (s Solution) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Topology    Topology      `json:"topology"`
		Status      Status        `json:"status"`
		Name        string        `json:"name"`
		FilterClass FilterClass   `json:"filterClass,omitempty"`
		Q           float64       `json:"q,omitempty"`
		Components  []Component   `json:"components,omitempty"`
		Lines       []Line        `json:"lines,omitempty"`
		Path        []PathSegment `json:"path,omitempty"`
		Steps       []string      `json:"steps,omitempty"`
		ZOut        string        `json:"zOut"`
		Residual    float64       `json:"residualOhm"`
	}{
		Topology:    s.Topology,
		Status:      s.Status,
		Name:        s.Name,
		FilterClass: s.FilterClass,
		Q:           s.Q,
		Components:  s.Components,
		Lines:       s.Lines,
		Path:        s.Path,
		Steps:       s.Steps,
		ZOut:        units.FormatComplex(s.ZOut),
		Residual:    s.Residual,
	})
}

func (r Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Topology     Topology   `json:"topology"`
		ZInitial     string     `json:"zInitial"`
		ZTarget      string     `json:"zTarget"`
		GammaInitial string     `json:"gammaInitial"`
		GammaTarget  string     `json:"gammaTarget"`
		Z0           float64    `json:"z0"`
		Frequency    float64    `json:"frequency"`
		Steps        []string   `json:"steps,omitempty"`
		Solutions    []Solution `json:"solutions"`
	}{
		Topology:     r.Topology,
		ZInitial:     units.FormatComplex(r.ZInitial),
		ZTarget:      units.FormatComplex(r.ZTarget),
		GammaInitial: units.FormatComplex(r.GammaInitial),
		GammaTarget:  units.FormatComplex(r.GammaTarget),
		Z0:           r.Z0,
		Frequency:    r.Frequency,
		Steps:        r.Steps,
		Solutions:    r.Solutions,
	})
}
