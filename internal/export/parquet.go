// Package export writes completed analyses to columnar files for offline
// study.
package export

import (
	"fmt"
	"strings"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/roach88/ucibridge/internal/session"
)

// DefaultParallel is the writer and reader goroutine count.
const DefaultParallel int64 = 4

// Row is one analysis flattened for parquet.
type Row struct {
	RequestID   string `parquet:"name=request_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	FEN         string `parquet:"name=fen, type=BYTE_ARRAY, convertedtype=UTF8"`
	Moves       string `parquet:"name=moves, type=BYTE_ARRAY, convertedtype=UTF8"`
	Move        string `parquet:"name=move, type=BYTE_ARRAY, convertedtype=UTF8"`
	CounterMove string `parquet:"name=counter_move, type=BYTE_ARRAY, convertedtype=UTF8"`
	Ponder      string `parquet:"name=ponder, type=BYTE_ARRAY, convertedtype=UTF8"`
	ScoreType   string `parquet:"name=score_type, type=BYTE_ARRAY, convertedtype=UTF8"`
	ScoreValue  int32  `parquet:"name=score_value, type=INT32"`
	Depth       int32  `parquet:"name=depth, type=INT32"`
	PV          string `parquet:"name=pv, type=BYTE_ARRAY, convertedtype=UTF8"`
}

// FromAnalysis flattens a. Move lists are space-separated; an unknown score
// has an empty ScoreType.
func FromAnalysis(a session.Analysis) Row {
	return Row{
		RequestID:   a.RequestID,
		FEN:         a.Position.FEN,
		Moves:       strings.Join(a.Position.Moves, " "),
		Move:        a.Move,
		CounterMove: a.CounterMove,
		Ponder:      a.Ponder,
		ScoreType:   string(a.Score.Kind),
		ScoreValue:  int32(a.Score.Value),
		Depth:       int32(a.Depth),
		PV:          strings.Join(a.PV, " "),
	}
}

// WriteParquet writes analyses to path, replacing any existing file.
func WriteParquet(path string, analyses []session.Analysis, parallel int64) error {
	if parallel <= 0 {
		parallel = DefaultParallel
	}

	fileWriter, err := local.NewLocalFileWriter(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer fileWriter.Close()

	parquetWriter, err := writer.NewParquetWriter(fileWriter, new(Row), parallel)
	if err != nil {
		return fmt.Errorf("parquet writer: %w", err)
	}
	parquetWriter.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, a := range analyses {
		if err := parquetWriter.Write(FromAnalysis(a)); err != nil {
			return fmt.Errorf("write %s: %w", a.RequestID, err)
		}
	}
	if err := parquetWriter.WriteStop(); err != nil {
		return fmt.Errorf("finish parquet: %w", err)
	}
	return fileWriter.Close()
}

// ReadParquet reads every row written by WriteParquet.
func ReadParquet(path string, parallel int64) ([]Row, error) {
	if parallel <= 0 {
		parallel = DefaultParallel
	}

	fileReader, err := local.NewLocalFileReader(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer fileReader.Close()

	parquetReader, err := reader.NewParquetReader(fileReader, new(Row), parallel)
	if err != nil {
		return nil, fmt.Errorf("parquet reader: %w", err)
	}
	defer parquetReader.ReadStop()

	rows := make([]Row, int(parquetReader.GetNumRows()))
	if len(rows) == 0 {
		return rows, nil
	}
	if err := parquetReader.Read(&rows); err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	return rows, nil
}
