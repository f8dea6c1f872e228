package service

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
	"io"
	"os"
	"strings"
)

const readBufferSize = 64 * 1024

type LogReader interface {
	// ReadLines returns every line of the file at path. Invalid UTF-8 is replaced rather than rejected.
	ReadLines(ctx context.Context, path string) ([]string, error)
}

type LogReaderImpl struct {
	logger *zap.Logger
}

func NewLogReader(logger *zap.Logger) LogReader {
	return &LogReaderImpl{logger: logger}
}

func (lr *LogReaderImpl) ReadLines(ctx context.Context, path string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("failed to read log file %s: %w", path, err)
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", path, err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			lr.logger.Warn("Failed to close log file", zap.String("path", path), zap.Error(err))
		}
	}()

	lines, err := DecodeLines(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read log file %s: %w", path, err)
	}
	lr.logger.Debug("Read log file", zap.String("path", path), zap.Int("lines", len(lines)))
	return lines, nil
}

// DecodeLines splits r into lines, honouring a byte order mark and replacing invalid UTF-8.
// Lines have no length limit.
func DecodeLines(r io.Reader) ([]string, error) {
	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	reader := bufio.NewReaderSize(transform.NewReader(r, decoder), readBufferSize)
	var lines []string
	for {
		line, err := reader.ReadString('\n')
		if line != "" {
			line = strings.TrimSuffix(line, "\n")
			lines = append(lines, strings.TrimSuffix(line, "\r"))
		}
		if errors.Is(err, io.EOF) {
			return lines, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read lines: %w", err)
		}
	}
}
