// Package objectstore implementa el StoreAdapter content-addressed sobre un
// bucket S3-compatible (Filebase u otro). El blob de metadata vive bajo una
// key derivada de su hash sha256 sobre JSON canónico; un objeto índice por id
// permite resolver id -> hash. PutObject sobre la misma key es idempotente
// por construcción.
package objectstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"ticketchain/internal/domain/events"
	"ticketchain/internal/platform/canonical"
)

type Config struct {
	Endpoint  string // S3-compatible; vacío => AWS S3
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string

	// Base pública para armar URLs de retrieval. Vacío => endpoint/bucket.
	PublicBaseURL string
}

type Adapter struct {
	client  *s3.Client
	bucket  string
	baseURL string
}

func New(ctx context.Context, cfg Config) (*Adapter, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, errors.New("objectstore: bucket required")
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awscfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("objectstore: load aws config: %w", err)
	}

	client := s3.NewFromConfig(awscfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	baseURL := strings.TrimRight(cfg.PublicBaseURL, "/")
	if baseURL == "" {
		baseURL = strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
	}

	return &Adapter{client: client, bucket: cfg.Bucket, baseURL: baseURL}, nil
}

func (a *Adapter) Kind() events.Kind { return events.KindObjectStore }

// metadata es el blob content-addressed que describe al evento.
type metadata struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	Location       string `json:"location"`
	StartTime      string `json:"start_time"`
	EndTime        string `json:"end_time"`
	MaxCapacity    int    `json:"max_capacity"`
	TicketPrice    int64  `json:"ticket_price"`
	CreatorAddress string `json:"creator_address"`
	BannerHash     string `json:"banner_hash,omitempty"`
	BannerURL      string `json:"banner_url,omitempty"`
}

// index resuelve id -> hash del blob vigente.
type index struct {
	MetadataHash string `json:"metadata_hash"`
	BannerHash   string `json:"banner_hash,omitempty"`
	BannerURL    string `json:"banner_url,omitempty"`
}

func blobKey(hash string) string { return "events/blobs/" + hash + ".json" }
func indexKey(id string) string  { return "events/by-id/" + id + ".json" }

func (a *Adapter) urlFor(key string) string { return a.baseURL + "/" + key }

func (a *Adapter) Write(ctx context.Context, rec events.EventRecord) (events.Receipt, error) {
	meta := metadata{
		ID:             rec.ID,
		Title:          rec.Title,
		Description:    rec.Description,
		Location:       rec.Location,
		StartTime:      rec.StartTime.UTC().Format(time.RFC3339),
		EndTime:        rec.EndTime.UTC().Format(time.RFC3339),
		MaxCapacity:    rec.MaxCapacity,
		TicketPrice:    int64(rec.TicketPrice),
		CreatorAddress: rec.CreatorAddress,
	}
	if rec.ObjectRef != nil && rec.ObjectRef.Banner != nil {
		meta.BannerHash = rec.ObjectRef.Banner.Hash
		meta.BannerURL = rec.ObjectRef.Banner.URL
	}

	hash, body, err := canonical.HashOf(meta)
	if err != nil {
		return events.Receipt{}, events.NewStoreError(events.KindObjectStore, events.ReasonRejected, err)
	}

	// Mismos bytes => misma key: si el blob ya está, no hay nada que subir.
	existed, err := a.exists(ctx, blobKey(hash))
	if err != nil {
		return events.Receipt{}, classify(err)
	}
	if !existed {
		if _, err := a.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(a.bucket),
			Key:         aws.String(blobKey(hash)),
			Body:        bytes.NewReader(body),
			ContentType: aws.String("application/json"),
		}); err != nil {
			return events.Receipt{}, classify(err)
		}
	}

	idx, err := json.Marshal(index{
		MetadataHash: hash,
		BannerHash:   meta.BannerHash,
		BannerURL:    meta.BannerURL,
	})
	if err != nil {
		return events.Receipt{}, events.NewStoreError(events.KindObjectStore, events.ReasonRejected, err)
	}
	if _, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(indexKey(rec.ID)),
		Body:        bytes.NewReader(idx),
		ContentType: aws.String("application/json"),
	}); err != nil {
		return events.Receipt{}, classify(err)
	}

	ref := &events.ObjectStoreRef{
		Metadata: events.BlobRef{Hash: hash, URL: a.urlFor(blobKey(hash))},
	}
	if meta.BannerHash != "" {
		ref.Banner = &events.BlobRef{Hash: meta.BannerHash, URL: meta.BannerURL}
	}

	return events.Receipt{
		Store:          events.KindObjectStore,
		ObjectRef:      ref,
		AlreadyExisted: existed,
	}, nil
}

// Read baja el índice, después el blob, y recomputa el hash de lo recuperado.
// Un mismatch no es divergencia reparable: se marca Corrupted y decide arriba.
func (a *Adapter) Read(ctx context.Context, id string) (events.ReadResult, error) {
	idxBody, err := a.get(ctx, indexKey(id))
	if err != nil {
		if isNotFound(err) {
			return events.ReadResult{}, nil
		}
		return events.ReadResult{}, classify(err)
	}

	var idx index
	if err := json.Unmarshal(idxBody, &idx); err != nil {
		return events.ReadResult{}, events.NewStoreError(events.KindObjectStore, events.ReasonRejected, err)
	}

	rec := events.EventRecord{
		ID: id,
		ObjectRef: &events.ObjectStoreRef{
			Metadata: events.BlobRef{Hash: idx.MetadataHash, URL: a.urlFor(blobKey(idx.MetadataHash))},
		},
	}
	if idx.BannerHash != "" {
		rec.ObjectRef.Banner = &events.BlobRef{Hash: idx.BannerHash, URL: idx.BannerURL}
	}

	blob, err := a.get(ctx, blobKey(idx.MetadataHash))
	if err != nil {
		if isNotFound(err) {
			// Índice sin blob: el contenido direccionado no está; misma señal
			// de corrupción que un hash que no cuadra.
			return events.ReadResult{Record: rec, Found: true, Corrupted: true}, nil
		}
		return events.ReadResult{}, classify(err)
	}

	if canonical.Hash(blob) != idx.MetadataHash {
		return events.ReadResult{Record: rec, Found: true, Corrupted: true}, nil
	}

	var meta metadata
	if err := json.Unmarshal(blob, &meta); err != nil {
		return events.ReadResult{Record: rec, Found: true, Corrupted: true}, nil
	}

	rec.Title = meta.Title
	rec.Description = meta.Description
	rec.Location = meta.Location
	rec.MaxCapacity = meta.MaxCapacity
	rec.TicketPrice = events.Amount(meta.TicketPrice)
	rec.CreatorAddress = meta.CreatorAddress
	if t, perr := time.Parse(time.RFC3339, meta.StartTime); perr == nil {
		rec.StartTime = t
	}
	if t, perr := time.Parse(time.RFC3339, meta.EndTime); perr == nil {
		rec.EndTime = t
	}

	return events.ReadResult{Record: rec, Found: true}, nil
}

func (a *Adapter) get(ctx context.Context, key string) ([]byte, error) {
	out, err := a.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, err
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

func (a *Adapter) exists(ctx context.Context, key string) (bool, error) {
	_, err := a.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func isNotFound(err error) bool {
	var nsk *s3types.NoSuchKey
	var nf *s3types.NotFound
	return errors.As(err, &nsk) || errors.As(err, &nf)
}

func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return events.NewStoreError(events.KindObjectStore, events.ReasonTimeout, err)
	}
	return events.NewStoreError(events.KindObjectStore, events.ReasonUnavailable, err)
}
