package service

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/academie/admission-backend/internal/model"
	"github.com/academie/admission-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

type candKey struct{ session, candidate uuid.UUID }

type attemptKey struct{ quiz, candidate uuid.UUID }

// memDB is an in-memory stand-in for the PostgreSQL schema. Every store method
// runs under mu, which gives the same atomicity as a single SQL statement.
type memDB struct {
	mu   sync.Mutex
	txMu sync.Mutex
	seq  int

	sessions   map[uuid.UUID]model.Session
	candidates map[candKey]model.SessionCandidate
	interviews map[uuid.UUID]model.Interview
	quizzes    map[uuid.UUID]model.Quiz
	attempts   map[attemptKey]model.QuizAttempt
}

var epoch = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func newMemDB() *memDB {
	return &memDB{
		sessions:   make(map[uuid.UUID]model.Session),
		candidates: make(map[candKey]model.SessionCandidate),
		interviews: make(map[uuid.UUID]model.Interview),
		quizzes:    make(map[uuid.UUID]model.Quiz),
		attempts:   make(map[attemptKey]model.QuizAttempt),
	}
}

// tick returns strictly increasing timestamps for created_at ordering.
func (db *memDB) tick() time.Time {
	db.seq++
	return epoch.Add(time.Duration(db.seq) * time.Millisecond)
}

type memSnapshot struct {
	candidates map[candKey]model.SessionCandidate
	interviews map[uuid.UUID]model.Interview
	attempts   map[attemptKey]model.QuizAttempt
}

func (db *memDB) snapshot() memSnapshot {
	db.mu.Lock()
	defer db.mu.Unlock()
	s := memSnapshot{
		candidates: make(map[candKey]model.SessionCandidate, len(db.candidates)),
		interviews: make(map[uuid.UUID]model.Interview, len(db.interviews)),
		attempts:   make(map[attemptKey]model.QuizAttempt, len(db.attempts)),
	}
	for k, v := range db.candidates {
		s.candidates[k] = v
	}
	for k, v := range db.interviews {
		s.interviews[k] = v
	}
	for k, v := range db.attempts {
		s.attempts[k] = v
	}
	return s
}

func (db *memDB) restore(s memSnapshot) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.candidates = s.candidates
	db.interviews = s.interviews
	db.attempts = s.attempts
}

func cloneAttempt(a model.QuizAttempt) *model.QuizAttempt {
	a.Answers = model.AnswerMap{}.Merge(a.Answers)
	return &a
}

// ─── TxManager ───────────────────────────────────────────────────────

type memTxKey struct{}

type memTxState struct{ afterCommit []func() }

type memTx struct{ db *memDB }

func (m memTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(memTxKey{}) != nil {
		return fn(ctx)
	}
	m.db.txMu.Lock()
	snap := m.db.snapshot()
	state := &memTxState{}
	if err := fn(context.WithValue(ctx, memTxKey{}, state)); err != nil {
		m.db.restore(snap)
		m.db.txMu.Unlock()
		return err
	}
	m.db.txMu.Unlock()
	for _, f := range state.afterCommit {
		f()
	}
	return nil
}

func (m memTx) AfterCommit(ctx context.Context, f func()) {
	if state, ok := ctx.Value(memTxKey{}).(*memTxState); ok {
		state.afterCommit = append(state.afterCommit, f)
		return
	}
	f()
}

// ─── Sessions ────────────────────────────────────────────────────────

type memSessions struct{ *memDB }

func (s memSessions) GetByID(_ context.Context, id uuid.UUID) (*model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &sess, nil
}

func (s memSessions) List(_ context.Context) ([]model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s memSessions) Create(_ context.Context, sess *model.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess.ID = uuid.New()
	sess.CreatedAt = s.tick()
	sess.UpdatedAt = sess.CreatedAt
	s.sessions[sess.ID] = *sess
	return nil
}

func (s memSessions) UpdateStatus(_ context.Context, id uuid.UUID, from, to model.SessionStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok || sess.Status != from {
		return false, nil
	}
	sess.Status = to
	sess.UpdatedAt = s.tick()
	s.sessions[id] = sess
	return true, nil
}

// ─── Candidates ──────────────────────────────────────────────────────

type memCandidates struct{ *memDB }

func (s memCandidates) Get(_ context.Context, sessionID, candidateID uuid.UUID) (*model.SessionCandidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.candidates[candKey{sessionID, candidateID}]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &c, nil
}

func (s memCandidates) GetForUpdate(ctx context.Context, sessionID, candidateID uuid.UUID) (*model.SessionCandidate, error) {
	return s.Get(ctx, sessionID, candidateID)
}

func (s memCandidates) Create(_ context.Context, c *model.SessionCandidate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := candKey{c.SessionID, c.CandidateID}
	if _, ok := s.candidates[k]; ok {
		return repository.ErrDuplicate
	}
	c.CreatedAt = s.tick()
	c.UpdatedAt = c.CreatedAt
	s.candidates[k] = *c
	return nil
}

func (s memCandidates) Delete(_ context.Context, sessionID, candidateID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := candKey{sessionID, candidateID}
	if _, ok := s.candidates[k]; !ok {
		return false, nil
	}
	delete(s.candidates, k)
	return true, nil
}

func (s memCandidates) UpdateStatus(_ context.Context, sessionID, candidateID uuid.UUID, from, to model.CandidateStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := candKey{sessionID, candidateID}
	c, ok := s.candidates[k]
	if !ok || c.Status != from {
		return false, nil
	}
	c.Status = to
	c.UpdatedAt = s.tick()
	s.candidates[k] = c
	return true, nil
}

func (s memCandidates) ListBySession(_ context.Context, sessionID uuid.UUID) ([]model.SessionCandidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listCandidatesLocked(sessionID), nil
}

func (db *memDB) listCandidatesLocked(sessionID uuid.UUID) []model.SessionCandidate {
	var out []model.SessionCandidate
	for k, c := range db.candidates {
		if k.session == sessionID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// ─── Interviews ──────────────────────────────────────────────────────

type memInterviews struct{ *memDB }

func (s memInterviews) GetByID(_ context.Context, id uuid.UUID) (*model.Interview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.interviews[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &i, nil
}

func (s memInterviews) GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Interview, error) {
	return s.GetByID(ctx, id)
}

func (s memInterviews) Latest(_ context.Context, sessionID, candidateID uuid.UUID) (*model.Interview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	latest := s.latestLocked(sessionID, candidateID)
	if latest == nil {
		return nil, pgx.ErrNoRows
	}
	return latest, nil
}

func (db *memDB) latestLocked(sessionID, candidateID uuid.UUID) *model.Interview {
	var latest *model.Interview
	for _, i := range db.interviews {
		if i.SessionID != sessionID || i.CandidateID != candidateID {
			continue
		}
		if latest == nil || i.CreatedAt.After(latest.CreatedAt) {
			cp := i
			latest = &cp
		}
	}
	return latest
}

func (s memInterviews) FindOpen(_ context.Context, sessionID, candidateID uuid.UUID) (*model.Interview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, i := range s.interviews {
		if i.SessionID == sessionID && i.CandidateID == candidateID && i.Decision == nil {
			return &i, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (s memInterviews) Create(_ context.Context, i *model.Interview) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, other := range s.interviews {
		if other.SessionID == i.SessionID && other.CandidateID == i.CandidateID && other.Decision == nil {
			return repository.ErrDuplicate
		}
	}
	i.ID = uuid.New()
	i.CreatedAt = s.tick()
	i.UpdatedAt = i.CreatedAt
	s.interviews[i.ID] = *i
	return nil
}

func (s memInterviews) Claim(_ context.Context, id, interviewerID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.interviews[id]
	if !ok || i.Status != model.InterviewStatusScheduled {
		return false, nil
	}
	i.Status = model.InterviewStatusInProgress
	i.InterviewerID = &interviewerID
	s.interviews[id] = i
	return true, nil
}

func (s memInterviews) Complete(_ context.Context, id uuid.UUID, decision model.Decision, notes string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.interviews[id]
	if !ok || i.Decision != nil {
		return false, nil
	}
	i.Status = model.InterviewStatusCompleted
	i.Decision = &decision
	i.Notes = notes
	i.CompletedAt = &at
	s.interviews[id] = i
	return true, nil
}

// ─── Quizzes ─────────────────────────────────────────────────────────

type memQuizzes struct{ *memDB }

func (s memQuizzes) GetWithQuestions(_ context.Context, id uuid.UUID) (*model.Quiz, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.quizzes[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	q.Questions = append([]model.Question(nil), q.Questions...)
	return &q, nil
}

func (s memQuizzes) GetMany(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.Quiz, error) {
	out := make(map[uuid.UUID]*model.Quiz, len(ids))
	for _, id := range ids {
		q, err := s.GetWithQuestions(ctx, id)
		if err == nil {
			out[id] = q
		}
	}
	return out, nil
}

// ─── Attempts ────────────────────────────────────────────────────────

type memAttempts struct{ *memDB }

func (s memAttempts) Get(_ context.Context, quizID, candidateID uuid.UUID) (*model.QuizAttempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.attempts[attemptKey{quizID, candidateID}]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return cloneAttempt(a), nil
}

func (s memAttempts) CreateIfAbsent(_ context.Context, a *model.QuizAttempt) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := attemptKey{a.QuizID, a.CandidateID}
	if existing, ok := s.attempts[k]; ok {
		*a = *cloneAttempt(existing)
		return false, nil
	}
	a.ID = uuid.New()
	a.UpdatedAt = s.tick()
	s.attempts[k] = *cloneAttempt(*a)
	return true, nil
}

func (s memAttempts) SaveProgress(_ context.Context, a *model.QuizAttempt) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := attemptKey{a.QuizID, a.CandidateID}
	stored, ok := s.attempts[k]
	if !ok {
		a.ID = uuid.New()
		a.UpdatedAt = s.tick()
		s.attempts[k] = *cloneAttempt(*a)
		return true, nil
	}
	if stored.Completed || (a.SaveSeq != 0 && stored.SaveSeq > a.SaveSeq) {
		return false, nil
	}
	stored.Progress = a.Progress
	stored.Answers = stored.Answers.Merge(a.Answers)
	if a.SaveSeq > stored.SaveSeq {
		stored.SaveSeq = a.SaveSeq
	}
	if stored.SessionID == nil {
		stored.SessionID = a.SessionID
	}
	stored.UpdatedAt = s.tick()
	s.attempts[k] = stored

	a.ID = stored.ID
	a.SessionID = stored.SessionID
	a.Answers = model.AnswerMap{}.Merge(stored.Answers)
	a.StartedAt = stored.StartedAt
	a.UpdatedAt = stored.UpdatedAt
	return true, nil
}

func (s memAttempts) Complete(_ context.Context, a *model.QuizAttempt) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := attemptKey{a.QuizID, a.CandidateID}
	stored, ok := s.attempts[k]
	if ok && stored.Completed {
		return false, nil
	}
	next := *cloneAttempt(*a)
	next.Completed = true
	next.UpdatedAt = s.tick()
	if ok {
		next.ID = stored.ID
		next.StartedAt = stored.StartedAt
		if stored.SessionID != nil {
			next.SessionID = stored.SessionID
		}
		if stored.SaveSeq > next.SaveSeq {
			next.SaveSeq = stored.SaveSeq
		}
	} else {
		next.ID = uuid.New()
	}
	s.attempts[k] = next

	a.ID = next.ID
	a.SessionID = next.SessionID
	a.StartedAt = next.StartedAt
	a.UpdatedAt = next.UpdatedAt
	a.Completed = true
	return true, nil
}

func (s memAttempts) DeleteInProgress(_ context.Context, quizID, candidateID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := attemptKey{quizID, candidateID}
	a, ok := s.attempts[k]
	if !ok || a.Completed {
		return false, nil
	}
	delete(s.attempts, k)
	return true, nil
}

func (s memAttempts) Delete(_ context.Context, quizID, candidateID uuid.UUID) (*model.QuizAttempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := attemptKey{quizID, candidateID}
	a, ok := s.attempts[k]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	delete(s.attempts, k)
	return cloneAttempt(a), nil
}

func (db *memDB) attemptCount() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.attempts)
}

// ─── Monitor read side ───────────────────────────────────────────────

type memMonitor struct{ *memDB }

func (s memMonitor) ListCandidates(_ context.Context, sessionID uuid.UUID) ([]model.SessionCandidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listCandidatesLocked(sessionID), nil
}

func (s memMonitor) LatestInterviews(_ context.Context, sessionID uuid.UUID) (map[uuid.UUID]*model.Interview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[uuid.UUID]*model.Interview)
	for k := range s.candidates {
		if k.session != sessionID {
			continue
		}
		if i := s.latestLocked(sessionID, k.candidate); i != nil {
			out[k.candidate] = i
		}
	}
	return out, nil
}

func (s memMonitor) ListAttempts(_ context.Context, sessionID uuid.UUID) ([]model.QuizAttempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.QuizAttempt
	for _, a := range s.attempts {
		if a.SessionID != nil && *a.SessionID == sessionID {
			out = append(out, *cloneAttempt(a))
		}
	}
	return out, nil
}

// ─── Side channels ───────────────────────────────────────────────────

type recordingPublisher struct {
	mu     sync.Mutex
	events []model.MonitorEvent
}

func (r *recordingPublisher) Publish(_ context.Context, evt model.MonitorEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
}

func (r *recordingPublisher) count(typ model.MonitorEventType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Type == typ {
			n++
		}
	}
	return n
}

type recordingAudit struct {
	mu     sync.Mutex
	events []model.AuditEvent
}

func (r *recordingAudit) Record(_ context.Context, evt model.AuditEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
}

func (r *recordingAudit) kinds() []model.AuditKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.AuditKind, len(r.events))
	for i, e := range r.events {
		out[i] = e.Kind
	}
	return out
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// ─── Harness ─────────────────────────────────────────────────────────

type harness struct {
	db         *memDB
	clock      *fakeClock
	events     *recordingPublisher
	audit      *recordingAudit
	candidates *CandidateService
	interviews *InterviewService
	attempts   *QuizAttemptService
	monitor    *MonitorService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := newMemDB()
	h := &harness{
		db:     db,
		clock:  &fakeClock{now: epoch.Add(time.Hour)},
		events: &recordingPublisher{},
		audit:  &recordingAudit{},
	}
	log := zerolog.Nop()
	tx := memTx{db}
	gate := InterviewGate{}

	h.candidates = NewCandidateService(tx, memSessions{db}, memCandidates{db}, memInterviews{db},
		memQuizzes{db}, memAttempts{db}, gate, h.events, h.audit, log)
	h.interviews = NewInterviewService(tx, memCandidates{db}, memInterviews{db}, h.candidates, h.audit, log)
	h.interviews.now = h.clock.Now
	h.attempts = NewQuizAttemptService(tx, memQuizzes{db}, memAttempts{db}, memCandidates{db}, memInterviews{db},
		h.candidates, gate, h.events, h.audit, AttemptPolicy{}, log)
	h.attempts.now = h.clock.Now
	h.monitor = NewMonitorService(memSessions{db}, memMonitor{db}, memQuizzes{db})
	h.monitor.now = h.clock.Now
	return h
}

func (h *harness) addSession(status model.SessionStatus) uuid.UUID {
	h.db.mu.Lock()
	defer h.db.mu.Unlock()
	id := uuid.New()
	h.db.sessions[id] = model.Session{ID: id, Name: "Promotion " + id.String()[:8], Status: status, CreatedAt: h.db.tick()}
	return id
}

func (h *harness) enroll(sessionID uuid.UUID, status model.CandidateStatus) uuid.UUID {
	h.db.mu.Lock()
	defer h.db.mu.Unlock()
	id := uuid.New()
	h.db.candidates[candKey{sessionID, id}] = model.SessionCandidate{
		SessionID:   sessionID,
		CandidateID: id,
		Status:      status,
		CreatedAt:   h.db.tick(),
	}
	return id
}

func (h *harness) status(sessionID, candidateID uuid.UUID) model.CandidateStatus {
	h.db.mu.Lock()
	defer h.db.mu.Unlock()
	return h.db.candidates[candKey{sessionID, candidateID}].Status
}

// addInterview stores an interview directly; decision nil leaves it open.
func (h *harness) addInterview(sessionID, candidateID uuid.UUID, status model.InterviewStatus, decision *model.Decision) {
	h.db.mu.Lock()
	defer h.db.mu.Unlock()
	i := model.Interview{
		ID:          uuid.New(),
		SessionID:   sessionID,
		CandidateID: candidateID,
		Status:      status,
		Decision:    decision,
		CreatedAt:   h.db.tick(),
	}
	h.db.interviews[i.ID] = i
}

// admitted enrolls a QUIZ_READY candidate with a completed interview.
func (h *harness) admitted(sessionID uuid.UUID, decision model.Decision) uuid.UUID {
	id := h.enroll(sessionID, model.CandidateStatusQuizReady)
	h.addInterview(sessionID, id, model.InterviewStatusCompleted, &decision)
	return id
}

type questionSpec struct {
	options []string
	correct string
	points  int
}

func (h *harness) addQuiz(practice bool, normal, toWatch int, questions ...questionSpec) *model.Quiz {
	h.db.mu.Lock()
	defer h.db.mu.Unlock()
	q := model.Quiz{
		ID:                  uuid.New(),
		Title:               "Admission test",
		TimeLimitSeconds:    600,
		PassingScoreNormal:  normal,
		PassingScoreToWatch: toWatch,
		Practice:            practice,
		CreatedAt:           h.db.tick(),
	}
	for i, spec := range questions {
		q.Questions = append(q.Questions, model.Question{
			ID:                uuid.New(),
			QuizID:            q.ID,
			Prompt:            "Question",
			Options:           spec.options,
			CorrectAnswerText: spec.correct,
			Points:            spec.points,
			OrderNum:          i,
		})
	}
	h.db.quizzes[q.ID] = q
	return &q
}

// twoQuestionQuiz is worth 2 + 3 points; the correct options are index 0 and 1.
func (h *harness) twoQuestionQuiz(normal, toWatch int) *model.Quiz {
	return h.addQuiz(false, normal, toWatch,
		questionSpec{options: []string{"Paris", "Lyon", "Nice"}, correct: "Paris", points: 2},
		questionSpec{options: []string{"3", "4", "5"}, correct: "4", points: 3},
	)
}

func candidatePrincipal(id uuid.UUID) *model.Principal {
	return &model.Principal{ID: id, Role: model.RoleCandidate}
}

func staffPrincipal(role model.Role) *model.Principal {
	return &model.Principal{ID: uuid.New(), Role: role}
}

func decisionPtr(d model.Decision) *model.Decision { return &d }
