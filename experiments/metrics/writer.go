package metrics

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Writer struct {
	baseDir string
}

// NewWriter creates root/name/<timestamp> and writes every file there.
func NewWriter(root, name string) (*Writer, error) {
	timestamp := time.Now().UTC().Format(time.RFC3339)
	baseDir := filepath.Join(root, name, timestamp)
	err := os.MkdirAll(baseDir, 0755)
	if err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	return &Writer{
		baseDir: baseDir,
	}, nil
}

func (w *Writer) Dir() string {
	return w.baseDir
}

func (w *Writer) writeCSV(file string, header []string, rows [][]string) error {
	path := filepath.Join(w.baseDir, file)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", file, err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	err = writer.Write(header)
	if err != nil {
		return fmt.Errorf("failed to write %s header: %w", file, err)
	}
	err = writer.WriteAll(rows)
	if err != nil {
		return fmt.Errorf("failed to write %s rows: %w", file, err)
	}
	return nil
}

func (w *Writer) WriteAgentConfigs(configs []AgentConfig) error {
	header := []string{"id", "name", "depth", "ordering", "deepening", "duration"}
	rows := make([][]string, 0, len(configs))
	for _, config := range configs {
		rows = append(rows, []string{
			strconv.Itoa(config.ID),
			config.Name(),
			strconv.Itoa(config.Depth),
			strconv.FormatBool(config.Ordering),
			strconv.FormatBool(config.Deepening),
			config.Duration.String(),
		})
	}
	return w.writeCSV("agent_configs.csv", header, rows)
}

func (w *Writer) WriteGameRecords(records []GameRecord) error {
	header := []string{"id", "agent1", "agent2", "winner", "start_time", "end_time", "duration", "total_moves"}
	rows := make([][]string, 0, len(records))
	for _, record := range records {
		rows = append(rows, []string{
			strconv.Itoa(record.ID),
			record.Agent1,
			record.Agent2,
			record.Winner,
			record.StartTime.Format(time.RFC3339Nano),
			record.EndTime.Format(time.RFC3339Nano),
			record.Duration.String(),
			strconv.Itoa(record.TotalMoves),
		})
	}
	return w.writeCSV("game_records.csv", header, rows)
}

func (w *Writer) WriteMoveRecords(records []MoveRecord) error {
	header := []string{"game", "step", "player", "agent", "position", "duration", "nodes", "episodes", "table_hits", "cutoffs", "depth", "timed_out"}
	rows := make([][]string, 0, len(records))
	for _, record := range records {
		rows = append(rows, []string{
			strconv.Itoa(record.Game),
			strconv.Itoa(record.Step),
			strconv.Itoa(record.Player),
			record.Agent,
			strconv.Itoa(record.Position),
			record.Duration.String(),
			strconv.FormatInt(record.Search.Nodes, 10),
			strconv.FormatInt(record.Search.Episodes, 10),
			strconv.FormatInt(record.Search.TableHits, 10),
			strconv.FormatInt(record.Search.Cutoffs, 10),
			strconv.Itoa(record.Search.Depth),
			strconv.FormatBool(record.Search.TimedOut),
		})
	}
	return w.writeCSV("move_records.csv", header, rows)
}

func (w *Writer) WriteDeltas(deltas []DeltaMetric) error {
	return w.writeSummary("delta.csv", deltas)
}

// WriteValueErrors stores per-run errors against a reference table.
func (w *Writer) WriteValueErrors(errs []DeltaMetric) error {
	return w.writeSummary("value_error.csv", errs)
}

func (w *Writer) writeSummary(file string, summary []DeltaMetric) error {
	header := []string{"run", "mean", "std"}
	rows := make([][]string, 0, len(summary))
	for _, d := range summary {
		rows = append(rows, []string{
			strconv.Itoa(d.Run),
			strconv.FormatFloat(d.Mean, 'g', -1, 64),
			strconv.FormatFloat(d.Std, 'g', -1, 64),
		})
	}
	return w.writeCSV(file, header, rows)
}

func (w *Writer) WriteRecords(records []RecordMetric) error {
	header := []string{"run", "opponent", "wins", "draws", "losses", "win_share"}
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			strconv.Itoa(r.Run),
			r.Opponent,
			strconv.Itoa(r.Wins),
			strconv.Itoa(r.Draws),
			strconv.Itoa(r.Losses),
			strconv.FormatFloat(r.WinShare, 'g', -1, 64),
		})
	}
	return w.writeCSV("record.csv", header, rows)
}

// WriteParams stores v as params.yaml.
func (w *Writer) WriteParams(v any) error {
	out, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode params: %w", err)
	}
	err = os.WriteFile(filepath.Join(w.baseDir, "params.yaml"), out, 0644)
	if err != nil {
		return fmt.Errorf("failed to write params: %w", err)
	}
	return nil
}
