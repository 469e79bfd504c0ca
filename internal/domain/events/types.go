package events

type Visibility string

const (
	VisibilityPublic   Visibility = "public"
	VisibilityUnlisted Visibility = "unlisted"
	VisibilityPrivate  Visibility = "private"
)

func (v Visibility) Valid() bool {
	switch v {
	case VisibilityPublic, VisibilityUnlisted, VisibilityPrivate:
		return true
	}
	return false
}

// Kind identifica cada uno de los tres stores independientes.
type Kind string

const (
	KindLedger      Kind = "ledger"
	KindDatabase    Kind = "database"
	KindObjectStore Kind = "objectstore"
)

// Kinds en orden estable (para logs y resultados deterministas).
var Kinds = []Kind{KindLedger, KindDatabase, KindObjectStore}

// Field nombra un campo del EventRecord a efectos de divergencias y autoridad.
type Field string

const (
	FieldTitle        Field = "title"
	FieldDescription  Field = "description"
	FieldLocation     Field = "location"
	FieldStartTime    Field = "start_time"
	FieldEndTime      Field = "end_time"
	FieldMaxCapacity  Field = "max_capacity"
	FieldTicketPrice  Field = "ticket_price"
	FieldVisibility   Field = "visibility"
	FieldCreator      Field = "creator_address"
	FieldLedgerRef    Field = "ledger_ref"
	FieldMetadataBlob Field = "metadata_blob"

	// FieldContentIntegrity marca un hash de contenido que no coincide con los
	// bytes recuperados. No tiene store autoritativo: nadie puede "ganar" una
	// corrupción.
	FieldContentIntegrity Field = "content_integrity"
)

// ConsistencyState es el estado cross-store de un evento.
type ConsistencyState string

const (
	StateUninitialized       ConsistencyState = "UNINITIALIZED"
	StatePartiallyWritten    ConsistencyState = "PARTIALLY_WRITTEN"
	StateFullyWritten        ConsistencyState = "FULLY_WRITTEN"
	StateDivergentUnresolved ConsistencyState = "DIVERGENT_UNRESOLVED"
)

// RepairOp describe qué tipo de escritura correctiva se intentó.
type RepairOp string

const (
	// RepairOpBackfill: el store no tenía registro y se le escribe el canónico.
	RepairOpBackfill RepairOp = "backfill"
	// RepairOpOverwrite: el store tenía una copia desviada de un campo cuyo
	// dueño es otro store.
	RepairOpOverwrite RepairOp = "overwrite"
)
