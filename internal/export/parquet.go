package export

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/star/telemetrygen/internal/progress"
	"github.com/star/telemetrygen/internal/sensor"
	"github.com/star/telemetrygen/internal/telemetry"
)

// Column names of the readings file.
const (
	ColTimestamp = "timestamp"
	ColElapsedMS = "time_since_launch_ms"
	ColSensor    = "sensor_type"
	ColValue     = "value"
)

// parquetProgressInterval is how many rows are converted between progress updates.
const parquetProgressInterval = 100

// ReadingsSchema is the Arrow schema of the readings file. No column is nullable.
var ReadingsSchema = arrow.NewSchema([]arrow.Field{
	{Name: ColTimestamp, Type: &arrow.TimestampType{Unit: arrow.Microsecond}},
	{Name: ColElapsedMS, Type: arrow.PrimitiveTypes.Uint64},
	{Name: ColSensor, Type: arrow.BinaryTypes.String},
	{Name: ColValue, Type: arrow.PrimitiveTypes.Float64},
}, nil)

// UnsupportedValueError reports a reading whose value kind the Parquet
// schema cannot hold.
type UnsupportedValueError struct {
	Index   int
	Channel sensor.Channel
	Kind    sensor.ValueKind
}

// Error names the offending reading and its value kind.
func (e *UnsupportedValueError) Error() string {
	return fmt.Sprintf("reading %d (%s): %s values are not supported by the parquet exporter", e.Index, e.Channel.Name(), e.Kind)
}

// Parquet writes all readings into one Snappy-compressed Parquet file.
type Parquet struct {
	Dir      string
	logger   *slog.Logger
	progress progress.Reporter
	mem      memory.Allocator
}

// NewParquet returns a Parquet exporter writing into dir.
func NewParquet(dir string, logger *slog.Logger, r progress.Reporter) *Parquet {
	if r == nil {
		r = progress.Noop{}
	}
	return &Parquet{
		Dir:      dir,
		logger:   logger,
		progress: r,
		mem:      memory.DefaultAllocator,
	}
}

// Path returns the file the exporter writes for name.
func (e *Parquet) Path(name string) string {
	return filepath.Join(e.Dir, name+".parquet")
}

// Export writes <dir>/<name>.parquet and returns its path. An empty dataset
// writes nothing and returns an empty path. Text values abort the export
// before any file is created.
func (e *Parquet) Export(ds *telemetry.Dataset, name string) (string, error) {
	if ds.Empty() {
		e.logger.Warn("no readings to export, skipping parquet file", "name", name)
		return "", nil
	}

	rec, err := e.buildRecord(ds)
	if err != nil {
		return "", err
	}
	defer rec.Release()

	path := e.Path(name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create parquet file %s: %w", path, err)
	}
	defer f.Close()

	props := parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Snappy))
	w, err := pqarrow.NewFileWriter(ReadingsSchema, f, props, pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema()))
	if err != nil {
		return "", fmt.Errorf("create parquet writer %s: %w", path, err)
	}
	if err := w.Write(rec); err != nil {
		w.Close()
		return "", fmt.Errorf("write record batch %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("close parquet writer %s: %w", path, err)
	}

	e.logger.Info("parquet file written", "path", path, "rows", rec.NumRows())
	return path, nil
}

func (e *Parquet) buildRecord(ds *telemetry.Dataset) (arrow.Record, error) {
	b := array.NewRecordBuilder(e.mem, ReadingsSchema)
	defer b.Release()

	n := ds.Len()
	ts := b.Field(0).(*array.TimestampBuilder)
	elapsed := b.Field(1).(*array.Uint64Builder)
	names := b.Field(2).(*array.StringBuilder)
	values := b.Field(3).(*array.Float64Builder)
	ts.Reserve(n)
	elapsed.Reserve(n)
	names.Reserve(n)
	values.Reserve(n)

	tracker := e.progress.Track("rows", int64(n))
	defer tracker.Stop()
	for i, r := range ds.Readings {
		if i%parquetProgressInterval == 0 {
			tracker.Set(int64(i))
		}
		v, ok := r.Value.Float64()
		if !ok {
			return nil, &UnsupportedValueError{Index: i, Channel: r.Channel, Kind: r.Value.Kind()}
		}
		ts.Append(arrow.Timestamp(r.Timestamp.UnixMicro()))
		elapsed.Append(r.ElapsedMS)
		names.Append(r.Channel.Code())
		values.Append(v)
	}
	tracker.Finish("arrow conversion complete")

	return b.NewRecord(), nil
}

// Row is one line of a readings file as read back from disk.
type Row struct {
	Timestamp time.Time
	ElapsedMS uint64
	Sensor    string
	Value     float64
}

// ReadParquet loads every row of a readings file.
func ReadParquet(ctx context.Context, path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open parquet file %s: %w", path, err)
	}
	defer f.Close()

	tbl, err := pqarrow.ReadTable(ctx, f, parquet.NewReaderProperties(memory.DefaultAllocator), pqarrow.ArrowReadProperties{}, memory.DefaultAllocator)
	if err != nil {
		return nil, fmt.Errorf("read parquet table %s: %w", path, err)
	}
	defer tbl.Release()

	if got, want := tbl.NumCols(), int64(len(ReadingsSchema.Fields())); got != want {
		return nil, fmt.Errorf("parquet file %s: %d columns, want %d", path, got, want)
	}

	rows := make([]Row, tbl.NumRows())
	for col := 0; col < int(tbl.NumCols()); col++ {
		i := 0
		for _, chunk := range tbl.Column(col).Data().Chunks() {
			if err := fillColumn(rows[i:], col, chunk); err != nil {
				return nil, fmt.Errorf("parquet file %s: %w", path, err)
			}
			i += chunk.Len()
		}
	}
	return rows, nil
}

func fillColumn(rows []Row, col int, chunk arrow.Array) error {
	switch col {
	case 0:
		a, ok := chunk.(*array.Timestamp)
		if !ok {
			return fmt.Errorf("column %s has type %s", ColTimestamp, chunk.DataType())
		}
		for j := 0; j < a.Len(); j++ {
			rows[j].Timestamp = time.UnixMicro(int64(a.Value(j))).UTC()
		}
	case 1:
		a, ok := chunk.(*array.Uint64)
		if !ok {
			return fmt.Errorf("column %s has type %s", ColElapsedMS, chunk.DataType())
		}
		for j := 0; j < a.Len(); j++ {
			rows[j].ElapsedMS = a.Value(j)
		}
	case 2:
		a, ok := chunk.(*array.String)
		if !ok {
			return fmt.Errorf("column %s has type %s", ColSensor, chunk.DataType())
		}
		for j := 0; j < a.Len(); j++ {
			rows[j].Sensor = a.Value(j)
		}
	case 3:
		a, ok := chunk.(*array.Float64)
		if !ok {
			return fmt.Errorf("column %s has type %s", ColValue, chunk.DataType())
		}
		for j := 0; j < a.Len(); j++ {
			rows[j].Value = a.Value(j)
		}
	}
	return nil
}
