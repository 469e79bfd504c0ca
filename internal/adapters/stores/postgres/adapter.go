// Package postgres implementa el StoreAdapter de database sobre Postgres.
// La tabla events es la única dueña del contador revision; cada upsert lo
// incrementa. Un INSERT que choca con un id existente se resuelve como
// upsert idempotente, nunca como fallo.
package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"ticketchain/internal/domain/events"
)

type Adapter struct {
	db *sql.DB
}

func NewAdapter(db *sql.DB) *Adapter {
	return &Adapter{db: db}
}

func (a *Adapter) Kind() events.Kind { return events.KindDatabase }

func (a *Adapter) Write(ctx context.Context, rec events.EventRecord) (events.Receipt, error) {
	var (
		chainID, contract, txHash any
		eventIndex                any
		metaHash, metaURL         any
		bannerHash, bannerURL     any
	)
	if rec.LedgerRef != nil {
		chainID = rec.LedgerRef.ChainID
		contract = rec.LedgerRef.Contract
		eventIndex = int64(rec.LedgerRef.EventIndex)
		txHash = rec.LedgerRef.TxHash
	}
	if rec.ObjectRef != nil {
		if rec.ObjectRef.Metadata.Hash != "" {
			metaHash = rec.ObjectRef.Metadata.Hash
			metaURL = rec.ObjectRef.Metadata.URL
		}
		if rec.ObjectRef.Banner != nil {
			bannerHash = rec.ObjectRef.Banner.Hash
			bannerURL = rec.ObjectRef.Banner.URL
		}
	}

	row := a.db.QueryRowContext(ctx, `
		INSERT INTO events (
			id, title, description, location,
			start_time, end_time,
			max_capacity, ticket_price,
			visibility, creator_address,
			chain_id, contract_addr, event_index, tx_hash,
			metadata_hash, metadata_url, banner_hash, banner_url,
			revision
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,1)
		ON CONFLICT (id) DO UPDATE SET
			title           = EXCLUDED.title,
			description     = EXCLUDED.description,
			location        = EXCLUDED.location,
			start_time      = EXCLUDED.start_time,
			end_time        = EXCLUDED.end_time,
			max_capacity    = EXCLUDED.max_capacity,
			ticket_price    = EXCLUDED.ticket_price,
			visibility      = EXCLUDED.visibility,
			creator_address = EXCLUDED.creator_address,
			chain_id        = COALESCE(EXCLUDED.chain_id, events.chain_id),
			contract_addr   = COALESCE(EXCLUDED.contract_addr, events.contract_addr),
			event_index     = COALESCE(EXCLUDED.event_index, events.event_index),
			tx_hash         = COALESCE(EXCLUDED.tx_hash, events.tx_hash),
			metadata_hash   = COALESCE(EXCLUDED.metadata_hash, events.metadata_hash),
			metadata_url    = COALESCE(EXCLUDED.metadata_url, events.metadata_url),
			banner_hash     = COALESCE(EXCLUDED.banner_hash, events.banner_hash),
			banner_url      = COALESCE(EXCLUDED.banner_url, events.banner_url),
			revision        = events.revision + 1
		RETURNING revision, (xmax <> 0) AS already_existed
	`,
		rec.ID, rec.Title, rec.Description, rec.Location,
		rec.StartTime, rec.EndTime,
		rec.MaxCapacity, int64(rec.TicketPrice),
		string(rec.Visibility), rec.CreatorAddress,
		chainID, contract, eventIndex, txHash,
		metaHash, metaURL, bannerHash, bannerURL,
	)

	var revision int64
	var existed bool
	if err := row.Scan(&revision, &existed); err != nil {
		return events.Receipt{}, classify(err)
	}

	return events.Receipt{
		Store:          events.KindDatabase,
		Revision:       revision,
		AlreadyExisted: existed,
	}, nil
}

func (a *Adapter) Read(ctx context.Context, id string) (events.ReadResult, error) {
	row := a.db.QueryRowContext(ctx, `
		SELECT
			id, title, description, location,
			start_time, end_time,
			max_capacity, ticket_price,
			visibility, creator_address,
			chain_id, contract_addr, event_index, tx_hash,
			metadata_hash, metadata_url, banner_hash, banner_url,
			revision
		FROM events
		WHERE id = $1
	`, id)

	var (
		rec        events.EventRecord
		price      int64
		visibility string
		chainID    sql.NullString
		contract   sql.NullString
		eventIndex sql.NullInt64
		txHash     sql.NullString
		metaHash   sql.NullString
		metaURL    sql.NullString
		bannerHash sql.NullString
		bannerURL  sql.NullString
	)
	if err := row.Scan(
		&rec.ID, &rec.Title, &rec.Description, &rec.Location,
		&rec.StartTime, &rec.EndTime,
		&rec.MaxCapacity, &price,
		&visibility, &rec.CreatorAddress,
		&chainID, &contract, &eventIndex, &txHash,
		&metaHash, &metaURL, &bannerHash, &bannerURL,
		&rec.Revision,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return events.ReadResult{}, nil
		}
		return events.ReadResult{}, classify(err)
	}

	rec.TicketPrice = events.Amount(price)
	rec.Visibility = events.Visibility(visibility)

	if chainID.Valid && txHash.Valid {
		rec.LedgerRef = &events.LedgerRef{
			ChainID:    chainID.String,
			Contract:   contract.String,
			EventIndex: uint64(eventIndex.Int64),
			TxHash:     txHash.String,
		}
	}
	if metaHash.Valid {
		rec.ObjectRef = &events.ObjectStoreRef{
			Metadata: events.BlobRef{Hash: metaHash.String, URL: metaURL.String},
		}
		if bannerHash.Valid {
			rec.ObjectRef.Banner = &events.BlobRef{Hash: bannerHash.String, URL: bannerURL.String}
		}
	}

	return events.ReadResult{Record: rec, Found: true}, nil
}

// classify traduce errores nativos de Postgres a la taxonomía del core:
// violaciones de integridad/datos son rechazos del store, el resto se trata
// como indisponibilidad.
func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return events.NewStoreError(events.KindDatabase, events.ReasonTimeout, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if len(pgErr.Code) >= 2 {
			switch pgErr.Code[:2] {
			case "22", "23":
				return events.NewStoreError(events.KindDatabase, events.ReasonRejected, err)
			}
		}
	}
	return events.NewStoreError(events.KindDatabase, events.ReasonUnavailable, err)
}
