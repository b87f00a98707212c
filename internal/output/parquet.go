package output

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sync"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/writer"
	"go.uber.org/zap"

	"github.com/chrisdamba/foodlens/internal/cloudwriter"
)

const parquetParallelism = 4

type partitionWriter struct {
	mu   sync.Mutex
	pw   *writer.ParquetWriter
	file source.ParquetFile
}

// ParquetOutput keeps one writer per topic partition. Files go to the local
// disk unless a cloud writer factory is set, in which case objects are
// uploaded to the bucket when the output is closed.
type ParquetOutput struct {
	ctx     context.Context
	base    string
	folder  string
	factory cloudwriter.CloudWriterFactory
	bucket  string
	logger  *zap.Logger

	mu         sync.Mutex
	partitions map[string]*partitionWriter
}

func NewParquetOutput(ctx context.Context, basePath, folder string, factory cloudwriter.CloudWriterFactory, bucket string, logger *zap.Logger) *ParquetOutput {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ParquetOutput{
		ctx:        ctx,
		base:       basePath,
		folder:     folder,
		factory:    factory,
		bucket:     bucket,
		logger:     logger,
		partitions: make(map[string]*partitionWriter),
	}
}

func (p *ParquetOutput) WriteMessage(topic string, msg []byte) error {
	row, err := decodeRow(topic, msg)
	if err != nil {
		return err
	}
	at, err := messageTime(msg)
	if err != nil {
		return err
	}

	w, err := p.partition(topic, partitionPath(at))
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.pw.Write(row); err != nil {
		return fmt.Errorf("write %s row: %w", topic, err)
	}
	return nil
}

// partition returns the writer for topic/dir, opening it on first use.
func (p *ParquetOutput) partition(topic, dir string) (*partitionWriter, error) {
	key := path.Join(topic, dir)

	p.mu.Lock()
	defer p.mu.Unlock()
	if w, ok := p.partitions[key]; ok {
		return w, nil
	}

	schema, err := rowSchema(topic)
	if err != nil {
		return nil, err
	}
	file, err := p.openFile(key)
	if err != nil {
		return nil, err
	}
	pw, err := writer.NewParquetWriter(file, schema, parquetParallelism)
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("create parquet writer for %s: %w", key, err)
	}

	w := &partitionWriter{pw: pw, file: file}
	p.partitions[key] = w
	return w, nil
}

func (p *ParquetOutput) openFile(key string) (source.ParquetFile, error) {
	if p.factory != nil {
		objectPath := path.Join(p.folder, key, "data.parquet")
		cw, err := p.factory.NewWriter(p.ctx, p.bucket, objectPath)
		if err != nil {
			return nil, fmt.Errorf("open cloud object %s: %w", objectPath, err)
		}
		return NewCloudParquetFile(cw), nil
	}

	dir := filepath.Join(p.base, p.folder, filepath.FromSlash(key))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	file, err := local.NewLocalFileWriter(filepath.Join(dir, "data.parquet"))
	if err != nil {
		return nil, fmt.Errorf("open local parquet file in %s: %w", dir, err)
	}
	return file, nil
}

// Close flushes every partition. It keeps going after a failure and returns
// the last error seen.
func (p *ParquetOutput) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var lastErr error
	for key, w := range p.partitions {
		w.mu.Lock()
		if err := w.pw.WriteStop(); err != nil {
			lastErr = err
			p.logger.Error("Failed to finish parquet file", zap.String("partition", key), zap.Error(err))
		}
		if err := w.file.Close(); err != nil {
			lastErr = err
			p.logger.Error("Failed to close parquet file", zap.String("partition", key), zap.Error(err))
		}
		w.mu.Unlock()
		delete(p.partitions, key)
	}
	return lastErr
}

// CloudParquetFile adapts a write-only CloudWriter to source.ParquetFile.
// The parquet writer only appends and tracks its own offset.
type CloudParquetFile struct {
	cloudWriter cloudwriter.CloudWriter
	offset      int64
}

func NewCloudParquetFile(cw cloudwriter.CloudWriter) *CloudParquetFile {
	return &CloudParquetFile{cloudWriter: cw}
}

func (c *CloudParquetFile) Open(name string) (source.ParquetFile, error) {
	return c, nil
}

func (c *CloudParquetFile) Create(name string) (source.ParquetFile, error) {
	return c, nil
}

func (c *CloudParquetFile) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
		c.offset = offset
	case io.SeekCurrent:
		c.offset += offset
	default:
		return 0, fmt.Errorf("seek from end not supported for cloud storage")
	}
	return c.offset, nil
}

func (c *CloudParquetFile) Read(b []byte) (int, error) {
	return 0, fmt.Errorf("read not supported for cloud storage")
}

func (c *CloudParquetFile) Write(b []byte) (int, error) {
	n, err := c.cloudWriter.Write(b)
	c.offset += int64(n)
	return n, err
}

func (c *CloudParquetFile) Close() error {
	return c.cloudWriter.Close()
}
