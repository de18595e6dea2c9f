package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// DefaultKey é a chave única onde o blob do ledger fica guardado.
const DefaultKey = "betmaster_predictions"

// KV é o armazenamento durável chave-valor usado para o blob do ledger.
// found=false quando a chave ainda não existe.
type KV interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte) error
}

// Store é o dono exclusivo da coleção de apostas.
// Toda mutação monta a próxima versão, persiste o blob inteiro e só então troca o snapshot:
// se a escrita falhar, o estado anterior continua valendo.
type Store struct {
	mu      sync.RWMutex
	records []BetRecord
	kv      KV
	key     string
	log     *zap.Logger

	OnPersist      func(size int) // métricas; chamado com mu travado
	OnPersistError func(error)    // métricas
	OnCorrupt      func()         // métricas
}

// NewStore cria um ledger vazio; chame Init para reidratar do KV.
func NewStore(kv KV, key string, log *zap.Logger) *Store {
	if key == "" {
		key = DefaultKey
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{kv: kv, key: key, log: log}
}

// Init lê o blob uma única vez. Blob corrompido é descartado (ledger vazio) e apenas logado;
// falha de transporte com o KV é retornada ao chamador.
func (s *Store) Init(ctx context.Context) error {
	b, found, err := s.kv.Get(ctx, s.key)
	if err != nil {
		return fmt.Errorf("load ledger: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = nil
	if !found || len(b) == 0 {
		s.log.Info("ledger empty", zap.String("key", s.key))
		return nil
	}

	var recs []BetRecord
	err = json.Unmarshal(b, &recs)
	if err == nil {
		recs, err = sanitize(recs)
	}
	if err != nil {
		s.log.Warn("discarding ledger blob",
			zap.String("key", s.key),
			zap.Error(fmt.Errorf("%w: %v", ErrCorruptLedger, err)),
		)
		if s.OnCorrupt != nil {
			s.OnCorrupt()
		}
		return nil
	}
	s.records = recs
	s.log.Info("ledger loaded", zap.String("key", s.key), zap.Int("records", len(recs)))
	return nil
}

// Insert adiciona um registro no início da lista (mais recente primeiro).
func (s *Store) Insert(ctx context.Context, r BetRecord) error {
	return s.InsertMany(ctx, []BetRecord{r})
}

// InsertMany é atômico: ou todos entram, ou nenhum (id repetido no lote ou já existente).
// Os registros ficam à frente dos existentes, preservando a ordem do lote.
func (s *Store) InsertMany(ctx context.Context, recs []BetRecord) error {
	if len(recs) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]struct{}, len(s.records)+len(recs))
	for _, r := range s.records {
		seen[r.ID] = struct{}{}
	}
	batch := make([]BetRecord, len(recs))
	for i, r := range recs {
		r, err := normalize(r)
		if err != nil {
			return err
		}
		if _, dup := seen[r.ID]; dup {
			return &ValidationError{ID: r.ID, Err: ErrDuplicateID}
		}
		seen[r.ID] = struct{}{}
		batch[i] = r
	}

	next := make([]BetRecord, 0, len(recs)+len(s.records))
	next = append(next, batch...)
	next = append(next, s.records...)
	return s.commit(ctx, next)
}

// Update aplica mutate ao registro com o id informado.
// Id ausente é no-op silencioso (found=false). ID e CreatedAt são imutáveis: alterações neles são ignoradas.
func (s *Store) Update(ctx context.Context, id string, mutate func(*BetRecord)) (found bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return false, nil
	}

	r := s.records[idx]
	mutate(&r)
	r.ID = s.records[idx].ID
	r.CreatedAt = s.records[idx].CreatedAt
	r, err = normalize(r)
	if err != nil {
		return true, err
	}

	next := make([]BetRecord, len(s.records))
	copy(next, s.records)
	next[idx] = r
	return true, s.commit(ctx, next)
}

// Remove apaga o registro; id ausente é no-op.
func (s *Store) Remove(ctx context.Context, id string) (found bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return false, nil
	}

	next := make([]BetRecord, 0, len(s.records)-1)
	next = append(next, s.records[:idx]...)
	next = append(next, s.records[idx+1:]...)
	return true, s.commit(ctx, next)
}

// Get retorna uma cópia do registro.
func (s *Store) Get(id string) (BetRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if idx := s.indexOf(id); idx >= 0 {
		return s.records[idx], true
	}
	return BetRecord{}, false
}

// Snapshot retorna uma cópia da coleção na ordem de inserção para leitura.
func (s *Store) Snapshot() []BetRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]BetRecord, len(s.records))
	copy(out, s.records)
	return out
}

// Len retorna o tamanho atual do ledger.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func (s *Store) indexOf(id string) int {
	for i := range s.records {
		if s.records[i].ID == id {
			return i
		}
	}
	return -1
}

// normalize valida o registro e grava o status na forma canônica ("won" => WON).
func normalize(r BetRecord) (BetRecord, error) {
	if err := r.Validate(); err != nil {
		return r, err
	}
	r.Status, _ = ParseStatus(string(r.Status))
	return r, nil
}

// sanitize aplica normalize ao blob carregado; registro inválido ou id repetido invalida o blob inteiro.
func sanitize(recs []BetRecord) ([]BetRecord, error) {
	seen := make(map[string]struct{}, len(recs))
	out := make([]BetRecord, len(recs))
	for i, r := range recs {
		r, err := normalize(r)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		if _, dup := seen[r.ID]; dup {
			return nil, fmt.Errorf("record %d: %w", i, &ValidationError{ID: r.ID, Err: ErrDuplicateID})
		}
		seen[r.ID] = struct{}{}
		out[i] = r
	}
	return out, nil
}

// commit persiste next e troca o snapshot. Chamado com mu travado.
func (s *Store) commit(ctx context.Context, next []BetRecord) error {
	if next == nil {
		next = []BetRecord{}
	}
	b, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}
	if err := s.kv.Set(ctx, s.key, b); err != nil {
		s.log.Error("persist ledger failed", zap.String("key", s.key), zap.Error(err))
		if s.OnPersistError != nil {
			s.OnPersistError(err)
		}
		return fmt.Errorf("persist ledger: %w", err)
	}
	s.records = next
	if s.OnPersist != nil {
		s.OnPersist(len(next))
	}
	return nil
}
