// Package history exports per-epoch training metrics as an Arrow IPC stream
// so runs can be compared and plotted with any Arrow-aware tool.
package history

import (
	"fmt"
	"io"
	"os"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// columns fixes the export order: epoch first, metric columns after.
var columns = []string{"epoch", "loss", "accuracy", "val_loss", "val_accuracy", "duration_ms"}

// Schema describes one row per completed epoch.
func Schema() *arrow.Schema {
	fields := make([]arrow.Field, len(columns))
	fields[0] = arrow.Field{Name: "epoch", Type: arrow.PrimitiveTypes.Int64}
	for i := 1; i < len(columns); i++ {
		fields[i] = arrow.Field{Name: columns[i], Type: arrow.PrimitiveTypes.Float64}
	}
	return arrow.NewSchema(fields, nil)
}

// NewRecord builds a single Arrow record from epoch snapshots. Missing keys
// become nulls so partial snapshots stay distinguishable from zero values.
// The caller owns the returned record and must Release it.
func NewRecord(pool memory.Allocator, snapshots []map[string]float64) arrow.Record {
	b := array.NewRecordBuilder(pool, Schema())
	defer b.Release()

	epochs := b.Field(0).(*array.Int64Builder)
	for _, snap := range snapshots {
		if v, ok := snap["epoch"]; ok {
			epochs.Append(int64(v))
		} else {
			epochs.AppendNull()
		}
		for i := 1; i < len(columns); i++ {
			fb := b.Field(i).(*array.Float64Builder)
			if v, ok := snap[columns[i]]; ok {
				fb.Append(v)
			} else {
				fb.AppendNull()
			}
		}
	}
	return b.NewRecord()
}

// Write streams the snapshots to w in Arrow IPC stream format.
func Write(w io.Writer, snapshots []map[string]float64) error {
	pool := memory.NewGoAllocator()
	rec := NewRecord(pool, snapshots)
	defer rec.Release()

	fw := ipc.NewWriter(w, ipc.WithSchema(Schema()), ipc.WithAllocator(pool))
	if err := fw.Write(rec); err != nil {
		fw.Close()
		return fmt.Errorf("history: write record: %w", err)
	}
	if err := fw.Close(); err != nil {
		return fmt.Errorf("history: close stream: %w", err)
	}
	return nil
}

// WriteFile writes the snapshots to path, replacing any existing file.
func WriteFile(path string, snapshots []map[string]float64) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("history: create %s: %w", path, err)
	}
	if err := Write(f, snapshots); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("history: close %s: %w", path, err)
	}
	return nil
}
