package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/trajcost/internal/dynamo"
)

type ExportData struct {
	Run      RunMetadata `json:"run"`
	Steps    int         `json:"steps"`
	Times    []float64   `json:"times"`
	States   [][]float64 `json:"states"`
	Controls [][]float64 `json:"controls"`
}

// ExportJSON writes a run and its trajectory as a single JSON document.
func ExportJSON(w io.Writer, meta RunMetadata, traj *dynamo.Trajectory) error {
	data := ExportData{
		Run:      meta,
		Steps:    traj.Len(),
		Times:    traj.Times(),
		States:   make([][]float64, traj.Len()),
		Controls: make([][]float64, traj.Len()),
	}
	for i, n := range traj.Nodes {
		data.States[i] = n.X
		data.Controls[i] = n.U
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
