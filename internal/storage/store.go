package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/san-kum/trajcost/internal/dynamo"
	"github.com/san-kum/trajcost/internal/goal"
	"go.uber.org/zap"
)

const (
	metadataFile   = "metadata.json"
	trajectoryFile = "trajectory.csv"
	controlPrefix  = "u:"
)

var ErrMalformedTrajectory = errors.New("storage: malformed trajectory file")

type Store struct {
	baseDir string
	logger  *zap.Logger
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir, logger: zap.NewNop()}
}

func (s *Store) SetLogger(l *zap.Logger) {
	if l != nil {
		s.logger = l
	}
}

func (s *Store) Dir() string { return s.baseDir }

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// GoalSettings records the goal configuration a run was scored with.
type GoalSettings struct {
	Name                 string        `json:"name"`
	Exponent             float64       `json:"exponent"`
	DivideByDisplacement bool          `json:"divide_by_displacement"`
	Weights              []goal.Weight `json:"weights,omitempty"`
}

type RunMetadata struct {
	ID         string             `json:"id"`
	Model      string             `json:"model"`
	Timestamp  time.Time          `json:"timestamp"`
	Dt         float64            `json:"dt"`
	Duration   float64            `json:"duration"`
	Integrator string             `json:"integrator"`
	Controller string             `json:"controller"`
	Quadrature string             `json:"quadrature"`
	Controls   []string           `json:"controls"`
	Goal       GoalSettings       `json:"goal"`
	Total      float64            `json:"total"`
	Costs      map[string]float64 `json:"costs,omitempty"`
}

// Save writes meta and traj under a new run directory and returns the run id.
// Controls names the trajectory's control columns; unnamed columns are
// numbered.
func (s *Store) Save(meta RunMetadata, traj *dynamo.Trajectory) (string, error) {
	meta.ID = fmt.Sprintf("%s_%s", meta.Model, strings.SplitN(uuid.NewString(), "-", 2)[0])
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}
	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeTrajectory(filepath.Join(runDir, trajectoryFile), meta.Controls, traj); err != nil {
		return "", err
	}

	s.logger.Info("run saved", zap.String("run", meta.ID), zap.Int("nodes", traj.Len()))
	return meta.ID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeTrajectory(path string, names []string, traj *dynamo.Trajectory) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if traj.Len() > 0 {
		first := traj.Nodes[0]
		header := []string{"time"}
		for i := range first.X {
			header = append(header, fmt.Sprintf("x%d", i))
		}
		for i := range first.U {
			name := strconv.Itoa(i)
			if i < len(names) {
				name = names[i]
			}
			header = append(header, controlPrefix+name)
		}
		if err := w.Write(header); err != nil {
			return err
		}

		for _, n := range traj.Nodes {
			if len(n.X) != len(first.X) || len(n.U) != len(first.U) {
				return fmt.Errorf("%w: node at t=%g changes width", dynamo.ErrDimensionMismatch, n.Time)
			}
			row := make([]string, 0, len(header))
			row = append(row, formatFloat(n.Time))
			for _, v := range n.X {
				row = append(row, formatFloat(v))
			}
			for _, v := range n.U {
				row = append(row, formatFloat(v))
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
	}
	w.Flush()
	return w.Error()
}

// formatFloat keeps full precision so reloaded runs score identically.
func formatFloat(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

// List returns every readable run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			s.logger.Debug("skipping unreadable run", zap.String("dir", entry.Name()), zap.Error(err))
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		if runs[i].Timestamp.Equal(runs[j].Timestamp) {
			return runs[i].ID < runs[j].ID
		}
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	return &meta, nil
}

// LoadTrajectory reads a run's nodes back along with its control column
// names.
func (s *Store) LoadTrajectory(runID string) (*dynamo.Trajectory, []string, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, trajectoryFile))
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	return ReadTrajectory(f)
}

// ReadTrajectory parses the CSV layout written by Save.
func ReadTrajectory(r io.Reader) (*dynamo.Trajectory, []string, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrMalformedTrajectory, err)
	}
	traj := &dynamo.Trajectory{}
	if len(records) == 0 {
		return traj, nil, nil
	}

	header := records[0]
	if len(header) == 0 || header[0] != "time" {
		return nil, nil, fmt.Errorf("%w: header must start with time", ErrMalformedTrajectory)
	}
	nx := 0
	var names []string
	for _, col := range header[1:] {
		if name, ok := strings.CutPrefix(col, controlPrefix); ok {
			names = append(names, name)
		} else if len(names) == 0 {
			nx++
		} else {
			return nil, nil, fmt.Errorf("%w: state column %q after controls", ErrMalformedTrajectory, col)
		}
	}

	traj.Nodes = make([]dynamo.Node, 0, len(records)-1)
	for line, rec := range records[1:] {
		vals := make([]float64, len(rec))
		for j, field := range rec {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, nil, fmt.Errorf("%w: line %d: %v", ErrMalformedTrajectory, line+2, err)
			}
			vals[j] = v
		}
		n := dynamo.Node{Time: vals[0], X: dynamo.State(vals[1 : 1+nx])}
		if len(names) > 0 {
			n.U = dynamo.Control(vals[1+nx:])
		}
		traj.Nodes = append(traj.Nodes, n)
	}
	return traj, names, nil
}
