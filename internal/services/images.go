package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"propadmin/internal/apperr"
	"propadmin/internal/filestore"
	"propadmin/internal/logger"
	"propadmin/internal/models"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type ImageRepo interface {
	Ping(ctx context.Context) error
	Insert(ctx context.Context, img *models.Image) error
}

// UploadFile — один файл из multipart-запроса.
type UploadFile struct {
	Filename    string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// UploadResult — итог пачки. Частичный сбой не является ошибкой.
type UploadResult struct {
	Locators []string
	Stored   int
	Failed   int
}

type ImageService struct {
	repo    ImageRepo
	store   filestore.Store
	workers int
	now     func() time.Time
}

func NewImageService(repo ImageRepo, store filestore.Store, workers int) *ImageService {
	if workers < 1 {
		workers = 1
	}
	return &ImageService{repo: repo, store: store, workers: workers, now: time.Now}
}

// StorageKey — "{property_id}_{basename}". Одинаковые имена в пачке перезаписывают друг друга.
func StorageKey(propertyID int64, filename string) (string, error) {
	base := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	if filename == "" || base == "." || base == "/" || base == ".." {
		return "", fmt.Errorf("%w: empty filename", apperr.ErrInvalidFileKey)
	}
	return fmt.Sprintf("%d_%s", propertyID, base), nil
}

// UploadBatch сохраняет каждый файл и пишет по записи на файл.
// Сбой одного файла логируется и не прерывает пачку; возвращаются локаторы успешных файлов в исходном порядке.
func (s *ImageService) UploadBatch(ctx context.Context, propertyID int64, files []UploadFile) (*UploadResult, error) {
	log := logger.WithCtx(ctx).With(zap.Int64("property_id", propertyID))

	if len(files) == 0 {
		return nil, apperr.ErrNoImages
	}
	if err := s.repo.Ping(ctx); err != nil {
		log.Error("Хранилище изображений недоступно, пачка отменена", zap.Error(err))
		if !errors.Is(err, apperr.ErrStorage) {
			err = apperr.Storage("ping images", err)
		}
		return nil, err
	}

	lastUpdated := s.now()
	locators := make([]string, len(files))

	var insertMu sync.Mutex
	process := func(i int) {
		f := files[i]
		loc, err := s.storeOne(ctx, propertyID, f)
		if err != nil {
			log.Warn("Файл пропущен: ошибка сохранения", zap.String("filename", f.Filename), zap.Error(err))
			return
		}

		insertMu.Lock()
		err = s.repo.Insert(ctx, &models.Image{PropertyID: propertyID, URL: loc, LastUpdated: lastUpdated})
		insertMu.Unlock()
		if err != nil {
			log.Warn("Файл пропущен: ошибка записи в БД", zap.String("filename", f.Filename), zap.Error(err))
			return
		}
		locators[i] = loc
		log.Info("Изображение загружено", zap.String("filename", f.Filename), zap.String("url", loc))
	}

	if s.workers == 1 {
		for i := range files {
			process(i)
		}
	} else {
		// файлы с одним ключом идут одной задачей в исходном порядке, чтобы побеждал последний
		var g errgroup.Group
		g.SetLimit(s.workers)
		for _, group := range groupByKey(propertyID, files) {
			group := group
			g.Go(func() error {
				for _, i := range group {
					process(i)
				}
				return nil
			})
		}
		_ = g.Wait()
	}

	res := &UploadResult{Locators: make([]string, 0, len(files))}
	for _, loc := range locators {
		if loc == "" {
			res.Failed++
			continue
		}
		res.Locators = append(res.Locators, loc)
		res.Stored++
	}

	if res.Failed > 0 {
		log.Warn("Пачка загружена частично", zap.Int("stored", res.Stored), zap.Int("failed", res.Failed))
	} else {
		log.Info("Пачка загружена", zap.Int("stored", res.Stored))
	}
	return res, nil
}

// groupByKey раскладывает индексы файлов по ключу хранилища, сохраняя порядок.
// Файл с невалидным именем получает отдельную группу.
func groupByKey(propertyID int64, files []UploadFile) [][]int {
	var groups [][]int
	byKey := make(map[string]int, len(files))
	for i, f := range files {
		key, err := StorageKey(propertyID, f.Filename)
		if err != nil {
			groups = append(groups, []int{i})
			continue
		}
		if g, ok := byKey[key]; ok {
			groups[g] = append(groups[g], i)
			continue
		}
		byKey[key] = len(groups)
		groups = append(groups, []int{i})
	}
	return groups
}

func (s *ImageService) storeOne(ctx context.Context, propertyID int64, f UploadFile) (string, error) {
	key, err := StorageKey(propertyID, f.Filename)
	if err != nil {
		return "", err
	}
	if f.Open == nil {
		return "", errors.New("file has no content")
	}
	rc, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("open: %w", err)
	}
	defer rc.Close()

	return s.store.Put(ctx, key, rc, f.Size, f.ContentType)
}
