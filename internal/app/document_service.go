package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"github.com/phuslu/log"

	"docuchat/internal/ai"
	"docuchat/internal/extract"
	"docuchat/internal/model"
	"docuchat/internal/textproc"
)

var (
	ErrUnsupportedFileType = errors.New("unsupported file format")
	ErrFileTooLarge        = errors.New("file too large")
	ErrDocumentNotFound    = errors.New("document not found")
	ErrDocumentNotReady    = errors.New("document processing not completed yet")
)

// DocumentStore is the durable record of documents and their chunks.
type DocumentStore interface {
	Create(doc *model.Document) error
	ListByUserID(userID uint) ([]model.Document, error)
	GetByIDAndUserID(id, userID uint) (*model.Document, error)
	MarkFailed(id uint) error
	FinalizeSuccess(id uint, chunks []model.Chunk) error
}

// IngestQueue accepts deferred ingestion work. A successful Publish
// means the job is durably scheduled; a failure surfaces to the caller.
type IngestQueue interface {
	Publish(ctx context.Context, job model.IngestJob) error
}

// DocumentCache is the per-user document list cache.
type DocumentCache interface {
	GetDocuments(ctx context.Context, userID uint) ([]model.Document, bool, error)
	SetDocuments(ctx context.Context, userID uint, docs []model.Document) error
	Invalidate(ctx context.Context, userID uint) error
}

// EmbeddingClient turns texts into fixed-length vectors.
type EmbeddingClient interface {
	Embed(ctx context.Context, cfg ai.EmbeddingConfig, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, cfg ai.EmbeddingConfig, texts []string) ([][]float32, error)
}

// TextExtractor converts a saved upload into plain text.
type TextExtractor interface {
	Supports(fileName string) bool
	Extract(path string) (string, error)
}

// IngestOptions are the static pipeline knobs, injected at startup.
type IngestOptions struct {
	TempDir           string
	AllowedExtensions []string
	MaxFileSize       int64
	ChunkSize         int
	ChunkOverlap      int
	EmbedBatchSize    int
	EmbedTimeout      time.Duration
}

// DocumentService owns the ingestion pipeline: synchronous validation
// and temp-file save on the upload path, then the deferred
// extract → chunk → clean → embed → persist run invoked by the worker.
type DocumentService struct {
	docs      DocumentStore
	queue     IngestQueue
	listCache DocumentCache
	extractor TextExtractor
	embClient EmbeddingClient
	embConfig ai.EmbeddingConfig

	tempDir        string
	allowedExts    map[string]struct{}
	maxFileSize    int64
	chunkSize      int
	chunkOverlap   int
	embedBatchSize int
	embedTimeout   time.Duration
}

func NewDocumentService(
	docs DocumentStore,
	queue IngestQueue,
	listCache DocumentCache,
	extractor TextExtractor,
	embClient EmbeddingClient,
	embConfig ai.EmbeddingConfig,
	opts IngestOptions,
) *DocumentService {
	allowed := make(map[string]struct{}, len(opts.AllowedExtensions))
	for _, ext := range opts.AllowedExtensions {
		allowed[strings.ToLower(strings.TrimPrefix(ext, "."))] = struct{}{}
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = textproc.DefaultChunkSize
	}
	if opts.ChunkOverlap < 0 {
		opts.ChunkOverlap = textproc.DefaultChunkOverlap
	}
	if opts.EmbedBatchSize <= 0 {
		opts.EmbedBatchSize = 10
	}
	if opts.EmbedTimeout <= 0 {
		opts.EmbedTimeout = 60 * time.Second
	}
	return &DocumentService{
		docs:           docs,
		queue:          queue,
		listCache:      listCache,
		extractor:      extractor,
		embClient:      embClient,
		embConfig:      embConfig,
		tempDir:        opts.TempDir,
		allowedExts:    allowed,
		maxFileSize:    opts.MaxFileSize,
		chunkSize:      opts.ChunkSize,
		chunkOverlap:   opts.ChunkOverlap,
		embedBatchSize: opts.EmbedBatchSize,
		embedTimeout:   opts.EmbedTimeout,
	}
}

// ValidateFile rejects files whose extension is outside the allow-list
// or whose size exceeds the configured maximum. It runs synchronously
// on the upload path, before any temp file exists or work is scheduled.
func (s *DocumentService) ValidateFile(fileName string, size int64) error {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(fileName), "."))
	if _, ok := s.allowedExts[ext]; !ok {
		return fmt.Errorf("%w: %q", ErrUnsupportedFileType, fileName)
	}
	if s.maxFileSize > 0 && size > s.maxFileSize {
		return fmt.Errorf("%w: %q (%d bytes)", ErrFileTooLarge, fileName, size)
	}
	return nil
}

// HandleUpload validates every file first, then saves each to the
// user's temp directory under a fresh unique name and publishes an
// ingest job. The call returns once all jobs are scheduled; no
// extraction or embedding happens on this path.
func (s *DocumentService) HandleUpload(ctx context.Context, userID uint, files []*multipart.FileHeader) error {
	if userID == 0 || len(files) == 0 {
		return ErrInvalidInput
	}

	for _, fh := range files {
		if err := s.ValidateFile(fh.Filename, fh.Size); err != nil {
			return err
		}
	}

	userDir := filepath.Join(s.tempDir, strconv.FormatUint(uint64(userID), 10))
	if err := os.MkdirAll(userDir, 0o755); err != nil {
		return fmt.Errorf("create temp dir failed: %w", err)
	}

	for _, fh := range files {
		tempPath, err := s.saveTempFile(fh, userDir)
		if err != nil {
			return err
		}
		job := model.IngestJob{
			TempPath: tempPath,
			UserID:   userID,
			FileName: fh.Filename,
		}
		if err := s.queue.Publish(ctx, job); err != nil {
			_ = os.Remove(tempPath)
			return fmt.Errorf("schedule ingestion failed: %w", err)
		}
	}
	return nil
}

func (s *DocumentService) saveTempFile(fh *multipart.FileHeader, destDir string) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open uploaded file failed: %w", err)
	}
	defer src.Close()

	name := uuid.New().String() + strings.ToLower(filepath.Ext(fh.Filename))
	path := filepath.Join(destDir, name)

	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create temp file failed: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("write temp file failed: %w", err)
	}
	if err := dst.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("close temp file failed: %w", err)
	}
	return path, nil
}

// ProcessDocument runs one deferred ingestion: extract, chunk, clean,
// create the Processing row, embed, then finalize atomically. Any
// failure after the row exists marks it Failed. The temp file is
// removed on every exit path.
func (s *DocumentService) ProcessDocument(ctx context.Context, job model.IngestJob) error {
	defer func() {
		if err := os.Remove(job.TempPath); err != nil && !os.IsNotExist(err) {
			log.Warn().Err(err).Str("temp_path", job.TempPath).Msg("remove temp file failed")
		}
	}()

	text, err := s.extractor.Extract(job.TempPath)
	if err != nil {
		log.Error().Err(err).
			Uint("user_id", job.UserID).
			Str("file_name", job.FileName).
			Msg("extract document failed")
		return err
	}

	raw := textproc.Chunk(text, s.chunkSize, s.chunkOverlap)
	cleaned := make([]string, 0, len(raw))
	for _, c := range raw {
		if cc := textproc.Clean(c); cc != "" {
			cleaned = append(cleaned, cc)
		}
	}
	if len(cleaned) == 0 {
		err := fmt.Errorf("%w: no usable text in %q", extract.ErrExtractionFailed, job.FileName)
		log.Error().Err(err).Uint("user_id", job.UserID).Msg("document has no usable text")
		return err
	}

	doc := &model.Document{
		UserID:   job.UserID,
		FileName: job.FileName,
		Status:   model.StatusProcessing,
	}
	if err := s.docs.Create(doc); err != nil {
		log.Error().Err(err).
			Uint("user_id", job.UserID).
			Str("file_name", job.FileName).
			Msg("create document row failed")
		return err
	}
	s.invalidateList(ctx, job.UserID)

	embeddings, err := s.embedChunks(ctx, cleaned)
	if err != nil {
		s.failDocument(ctx, doc, err)
		return err
	}

	rows := make([]model.Chunk, len(cleaned))
	for i := range cleaned {
		rows[i] = model.Chunk{
			DocumentID: doc.ID,
			Content:    cleaned[i],
			Embedding:  pgvector.NewVector(embeddings[i]),
		}
	}
	if err := s.docs.FinalizeSuccess(doc.ID, rows); err != nil {
		s.failDocument(ctx, doc, err)
		return err
	}
	s.invalidateList(ctx, job.UserID)

	log.Info().
		Uint("user_id", job.UserID).
		Uint("document_id", doc.ID).
		Str("file_name", job.FileName).
		Int("chunks", len(rows)).
		Msg("document ingested")
	return nil
}

// embedChunks calls the provider in batches to respect batch-size
// limits, with a bounded timeout per call.
func (s *DocumentService) embedChunks(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += s.embedBatchSize {
		end := i + s.embedBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		callCtx, cancel := context.WithTimeout(ctx, s.embedTimeout)
		batch, err := s.embClient.EmbedBatch(callCtx, s.embConfig, texts[i:end])
		cancel()
		if err != nil {
			return nil, err
		}
		embeddings = append(embeddings, batch...)
	}
	if len(embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: embedding count mismatch", ai.ErrEmbeddingUnavailable)
	}
	return embeddings, nil
}

func (s *DocumentService) failDocument(ctx context.Context, doc *model.Document, cause error) {
	log.Error().Err(cause).
		Uint("user_id", doc.UserID).
		Uint("document_id", doc.ID).
		Str("file_name", doc.FileName).
		Msg("document ingestion failed")
	if err := s.docs.MarkFailed(doc.ID); err != nil {
		log.Error().Err(err).Uint("document_id", doc.ID).Msg("mark document failed status failed")
	}
	s.invalidateList(ctx, doc.UserID)
}

func (s *DocumentService) invalidateList(ctx context.Context, userID uint) {
	if s.listCache == nil {
		return
	}
	if err := s.listCache.Invalidate(ctx, userID); err != nil {
		log.Warn().Err(err).Uint("user_id", userID).Msg("invalidate document list cache failed")
	}
}

// ListDocuments returns the user's documents, served from the list
// cache when fresh.
func (s *DocumentService) ListDocuments(ctx context.Context, userID uint) ([]model.Document, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}
	if s.listCache != nil {
		docs, hit, err := s.listCache.GetDocuments(ctx, userID)
		if err != nil {
			log.Warn().Err(err).Uint("user_id", userID).Msg("read document list cache failed")
		} else if hit {
			return docs, nil
		}
	}

	docs, err := s.docs.ListByUserID(userID)
	if err != nil {
		return nil, err
	}
	if s.listCache != nil {
		if err := s.listCache.SetDocuments(ctx, userID, docs); err != nil {
			log.Warn().Err(err).Uint("user_id", userID).Msg("write document list cache failed")
		}
	}
	return docs, nil
}

// GetUserDocument returns the document's identity and status when it
// belongs to the user and ingestion has completed successfully.
func (s *DocumentService) GetUserDocument(userID, documentID uint) (*model.Document, error) {
	if userID == 0 || documentID == 0 {
		return nil, ErrInvalidInput
	}
	doc, err := s.docs.GetByIDAndUserID(documentID, userID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrDocumentNotFound
	}
	if doc.Status != model.StatusSuccess {
		return nil, ErrDocumentNotReady
	}
	return doc, nil
}
