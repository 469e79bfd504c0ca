package events

import "time"

// Amount es un monto fijo no-negativo en unidades mínimas de la moneda del
// contrato (wei-like). Se evita float para que las comparaciones cross-store
// sean exactas.
type Amount int64

// LedgerRef apunta al registro on-chain de un evento. Inmutable una vez
// confirmada la transacción.
type LedgerRef struct {
	ChainID    string
	Contract   string
	EventIndex uint64
	TxHash     string
}

// BlobRef es una referencia content-addressed: Hash identifica los bytes,
// URL dice de dónde recuperarlos.
type BlobRef struct {
	Hash string
	URL  string
}

// ObjectStoreRef agrupa las referencias del object store: el blob de metadata
// (siempre) y el banner (opcional).
type ObjectStoreRef struct {
	Metadata BlobRef
	Banner   *BlobRef
}

// EventRecord es la representación canónica, agnóstica del store, de un evento.
// ID se genera una sola vez en la creación y es la join key entre los tres
// stores; un registro sin este id no puede atribuirse al evento.
type EventRecord struct {
	ID string

	Title       string
	Description string
	Location    string

	StartTime time.Time
	EndTime   time.Time

	MaxCapacity int
	TicketPrice Amount

	Visibility     Visibility
	CreatorAddress string

	// Referencias por store. Opcionales: un registro puede estar parcialmente
	// presente justo después de la creación.
	LedgerRef *LedgerRef
	ObjectRef *ObjectStoreRef

	// Revision la mantiene solo el database store; 0 = sin registro ahí.
	Revision int64
}

// ProvenanceFlags indica qué stores tienen registro para un id en el momento
// de la operación. Nunca se persiste como verdad; siempre se recalcula de
// lecturas en vivo.
type ProvenanceFlags struct {
	Ledger      bool
	Database    bool
	ObjectStore bool
}

func (p ProvenanceFlags) Has(k Kind) bool {
	switch k {
	case KindLedger:
		return p.Ledger
	case KindDatabase:
		return p.Database
	case KindObjectStore:
		return p.ObjectStore
	}
	return false
}

func (p ProvenanceFlags) Count() int {
	n := 0
	for _, k := range Kinds {
		if p.Has(k) {
			n++
		}
	}
	return n
}

func (p ProvenanceFlags) Full() bool { return p.Count() == len(Kinds) }
func (p ProvenanceFlags) None() bool { return p.Count() == 0 }

// Receipt es lo que devuelve un store tras una escritura exitosa. Solo el
// campo correspondiente a su Kind viene poblado.
type Receipt struct {
	Store Kind

	LedgerRef *LedgerRef
	ObjectRef *ObjectStoreRef
	Revision  int64

	// AlreadyExisted: el store ya tenía registro para este id y la escritura
	// se resolvió como éxito idempotente (sin transacción/fila duplicada).
	AlreadyExisted bool
}

// ReadResult es el resultado de leer un store.
type ReadResult struct {
	Record EventRecord
	Found  bool

	// Corrupted: el store encontró el registro pero el hash recalculado del
	// contenido no coincide con su dirección. Señal de corrupción, no una
	// divergencia reparable por sobreescritura.
	Corrupted bool
}

// CreationResult agrega el resultado best-effort de la creación multi-store.
type CreationResult struct {
	ID         string
	Provenance ProvenanceFlags

	LedgerRef *LedgerRef
	ObjectRef *ObjectStoreRef
	Revision  int64

	// Failures conserva el error por store fallido, para que la capa de
	// arriba pueda componer el mensaje de éxito parcial.
	Failures map[Kind]error
}

// StoreValue es la copia que un store reporta para un campo en divergencia.
type StoreValue struct {
	Store Kind
	Value string
}

// Divergence registra un desacuerdo entre stores sobre un campo que debería
// ser consistente. Se reporta, nunca se resuelve en silencio.
type Divergence struct {
	Field  Field
	Values []StoreValue
}

// ResolvedEvent es la vista verificada de un evento: el registro canónico
// mergeado, la procedencia viva y las divergencias detectadas. Divergences
// vacío con Provenance completa es el estado terminal consistente.
type ResolvedEvent struct {
	Record      EventRecord
	Provenance  ProvenanceFlags
	Divergences []Divergence
}

// State deriva el estado cross-store de la vista resuelta.
func (r ResolvedEvent) State() ConsistencyState {
	switch {
	case r.Provenance.None():
		return StateUninitialized
	case len(r.Divergences) > 0:
		return StateDivergentUnresolved
	case r.Provenance.Full():
		return StateFullyWritten
	default:
		return StatePartiallyWritten
	}
}

// RepairAction es una escritura correctiva intentada contra un store.
type RepairAction struct {
	Store Kind
	Op    RepairOp
	Field Field // solo para overwrite; vacío en backfill
}

// RepairIssue es un fallo durante la reparación: o una escritura que falló,
// o una divergencia sin autoridad clara que se escala sin tocar nada.
type RepairIssue struct {
	Store  Kind // vacío si el problema no es de un store puntual
	Field  Field
	Reason string
}

// RepairResult reporta todo lo intentado y todo lo que falló. Success es true
// solo con cero errores; el progreso parcial igual se reporta.
type RepairResult struct {
	Success bool
	Actions []RepairAction
	Errors  []RepairIssue
}
