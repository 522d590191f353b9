package service

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/Ta-h-a/Hack2SkillFrontend/config"
	"github.com/Ta-h-a/Hack2SkillFrontend/model"
)

// DocumentStore is the in-memory store for documents and their clause
// lists. It is the only writer of clause state: the result synchronizer
// replaces lists wholesale, ghost insertion appends, detail fetches and
// accepted negotiations merge one clause in place. Everything else reads.
type DocumentStore struct {
	documents    map[string]*model.Document
	videoJobs    map[string]*model.VideoJob
	syncSeq      map[string]uint64 // highest applied poll sequence per document
	clauseLocks  map[string]*sync.Mutex
	mu           sync.RWMutex
	maxDocuments int // Maximum documents to keep, 0 = unlimited
}

var (
	globalStore *DocumentStore
	storeOnce   sync.Once
)

// InitDocumentStore initializes the global document store with configuration
func InitDocumentStore(cfg *config.StoreConfig) {
	storeOnce.Do(func() {
		maxDocuments := cfg.MaxDocuments
		if maxDocuments < 0 {
			maxDocuments = 0
		}
		globalStore = NewDocumentStore(maxDocuments)
		slog.Info("document store initialized", "max_documents", maxDocuments)
	})
}

// GetDocumentStore returns the global document store
func GetDocumentStore() *DocumentStore {
	if globalStore == nil {
		globalStore = NewDocumentStore(100)
	}
	return globalStore
}

// NewDocumentStore creates an empty store with the given capacity.
func NewDocumentStore(maxDocuments int) *DocumentStore {
	return &DocumentStore{
		documents:    make(map[string]*model.Document),
		videoJobs:    make(map[string]*model.VideoJob),
		syncSeq:      make(map[string]uint64),
		clauseLocks:  make(map[string]*sync.Mutex),
		maxDocuments: maxDocuments,
	}
}

// cloneDocument copies a document and its clause slice so readers never
// hold memory the watcher goroutines write to. Clause-internal slices are
// only ever replaced wholesale, never mutated in place, so a per-element
// copy is enough.
func cloneDocument(d *model.Document) *model.Document {
	c := *d
	if d.Clauses != nil {
		c.Clauses = make([]model.Clause, len(d.Clauses))
		copy(c.Clauses, d.Clauses)
	}
	return &c
}

func (s *DocumentStore) Save(doc *model.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc.UpdatedAt = time.Now()
	s.documents[doc.ID] = doc

	s.cleanupIfNeeded()
}

// Get returns a copy of the document. Handlers serialize documents after
// the lock is released while the result watcher keeps writing, so handing
// out the live pointer would race.
func (s *DocumentStore) Get(id string) *model.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.documents[id]
	if !ok {
		return nil
	}
	return cloneDocument(d)
}

// GetForTenant returns a copy of the document only if it belongs to the
// tenant.
func (s *DocumentStore) GetForTenant(id, tenant string) *model.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc := s.documents[id]
	if doc == nil || doc.Tenant != tenant {
		return nil
	}
	return cloneDocument(doc)
}

func (s *DocumentStore) GetByTenant(tenant string) []*model.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*model.Document
	for _, d := range s.documents {
		if d.Tenant == tenant {
			result = append(result, cloneDocument(d))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result
}

func (s *DocumentStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.documents, id)
	delete(s.syncSeq, id)
}

func (s *DocumentStore) UpdateStatus(id, status string, errMsg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.documents[id]; ok {
		d.Status = status
		d.ErrorMsg = errMsg
		d.UpdatedAt = time.Now()
	}
}

// CompleteAnalysis installs the normalized clause list produced by poll
// sequence seq and marks the document completed. A response from an older
// in-flight poll is dropped: out-of-order arrivals must never overwrite a
// newer list with a stale one. Reports whether the update was applied.
func (s *DocumentStore) CompleteAnalysis(id string, seq uint64, clauses []model.Clause) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.documents[id]
	if !ok {
		return false
	}
	if seq <= s.syncSeq[id] {
		slog.Warn("dropping stale analysis result",
			"document_id", id,
			"seq", seq,
			"applied_seq", s.syncSeq[id],
		)
		return false
	}

	s.syncSeq[id] = seq
	d.Clauses = clauses
	d.Status = model.StatusCompleted
	d.ErrorMsg = ""
	d.UpdatedAt = time.Now()
	return true
}

// FailAnalysis marks the document failed, subject to the same sequence
// guard as CompleteAnalysis.
func (s *DocumentStore) FailAnalysis(id string, seq uint64, errMsg string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.documents[id]
	if !ok {
		return false
	}
	if seq <= s.syncSeq[id] {
		return false
	}

	s.syncSeq[id] = seq
	d.Status = model.StatusFailed
	d.ErrorMsg = errMsg
	d.UpdatedAt = time.Now()
	return true
}

// ResetSync clears the applied poll sequence for a document. Called when a
// fresh watcher starts, so its sequence numbers begin ahead of the guard
// again.
func (s *DocumentStore) ResetSync(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.syncSeq, id)
}

// AppendGhosts adds ghost clauses to the document. Strictly additive:
// existing clauses are never touched, and a ghost whose id is already
// present is skipped so repeated insertions stay idempotent. Returns the
// number of ghosts actually appended.
func (s *DocumentStore) AppendGhosts(id string, ghosts []model.Clause) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.documents[id]
	if !ok {
		return 0
	}

	existing := make(map[string]struct{}, len(d.Clauses))
	for _, c := range d.Clauses {
		existing[c.ID] = struct{}{}
	}

	added := 0
	for _, g := range ghosts {
		if !g.IsGhost() {
			continue
		}
		if _, dup := existing[g.ID]; dup {
			continue
		}
		d.Clauses = append(d.Clauses, g)
		existing[g.ID] = struct{}{}
		added++
	}
	if added > 0 {
		d.UpdatedAt = time.Now()
	}
	return added
}

// UpdateClause applies fn to the clause with the given id, leaving siblings
// untouched. Reports whether the clause was found.
func (s *DocumentStore) UpdateClause(id, clauseID string, fn func(*model.Clause)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.documents[id]
	if !ok {
		return false
	}
	for i := range d.Clauses {
		if d.Clauses[i].ID == clauseID {
			fn(&d.Clauses[i])
			d.UpdatedAt = time.Now()
			return true
		}
	}
	return false
}

// FindClause returns a copy of the clause, or nil if absent.
func (s *DocumentStore) FindClause(id, clauseID string) *model.Clause {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.documents[id]
	if !ok {
		return nil
	}
	for i := range d.Clauses {
		if d.Clauses[i].ID == clauseID {
			c := d.Clauses[i]
			return &c
		}
	}
	return nil
}

// LockClause serializes mutating operations on one clause. Operations on
// different clauses proceed concurrently. The returned func releases the
// lock.
func (s *DocumentStore) LockClause(id, clauseID string) func() {
	key := id + "/" + clauseID

	s.mu.Lock()
	lock, ok := s.clauseLocks[key]
	if !ok {
		lock = &sync.Mutex{}
		s.clauseLocks[key] = lock
	}
	s.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

// SaveVideoJob records or updates a tracked video job.
func (s *DocumentStore) SaveVideoJob(job *model.VideoJob) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job.UpdatedAt = time.Now()
	s.videoJobs[job.JobID] = job
}

// GetVideoJob returns a copy of a tracked video job, or nil if unknown.
// Copied for the same reason as Get: the video watcher writes the tracked
// record concurrently.
func (s *DocumentStore) GetVideoJob(jobID string) *model.VideoJob {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.videoJobs[jobID]
	if !ok {
		return nil
	}
	jc := *j
	return &jc
}

// UpdateVideoJob applies the engine-reported status to a tracked job. A job
// already in a terminal state is left alone so a late poll response cannot
// flip it back.
func (s *DocumentStore) UpdateVideoJob(jobID, status, videoURL, errMsg string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.videoJobs[jobID]
	if !ok {
		return false
	}
	if j.Terminal() {
		return false
	}
	j.Status = status
	j.VideoURL = videoURL
	j.ErrorMsg = errMsg
	j.UpdatedAt = time.Now()
	return true
}

// cleanupIfNeeded removes oldest documents if store exceeds maxDocuments
// Must be called with lock held
func (s *DocumentStore) cleanupIfNeeded() {
	if s.maxDocuments <= 0 {
		return // Unlimited
	}

	if len(s.documents) <= s.maxDocuments {
		return
	}

	docs := make([]*model.Document, 0, len(s.documents))
	for _, d := range s.documents {
		docs = append(docs, d)
	}
	sort.Slice(docs, func(i, j int) bool {
		return docs[i].CreatedAt.Before(docs[j].CreatedAt)
	})

	removeCount := len(docs) - s.maxDocuments
	for i := 0; i < removeCount; i++ {
		slog.Info("auto-cleaning old document",
			"document_id", docs[i].ID,
			"created_at", docs[i].CreatedAt,
		)
		delete(s.documents, docs[i].ID)
		delete(s.syncSeq, docs[i].ID)
	}
}

// Count returns the number of documents in the store
func (s *DocumentStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.documents)
}
