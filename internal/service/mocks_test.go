package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/noah-isme/capstone-api/internal/models"
	"github.com/noah-isme/capstone-api/internal/repository"
)

type fakeProposalRepo struct {
	proposals map[int64]*models.Proposal
	nextID    int64
}

func newFakeProposalRepo(seed ...*models.Proposal) *fakeProposalRepo {
	repo := &fakeProposalRepo{proposals: make(map[int64]*models.Proposal)}
	for _, p := range seed {
		if p.ID == 0 {
			repo.nextID++
			p.ID = repo.nextID
		} else if p.ID > repo.nextID {
			repo.nextID = p.ID
		}
		repo.proposals[p.ID] = p
	}
	return repo
}

func (f *fakeProposalRepo) List(ctx context.Context, filter models.ProposalFilter) ([]models.Proposal, int, error) {
	var out []models.Proposal
	for _, p := range f.proposals {
		if filter.SemesterID != "" && p.SemesterID != filter.SemesterID {
			continue
		}
		if filter.Status != "" && string(p.Status) != filter.Status {
			continue
		}
		out = append(out, *p)
	}
	return out, len(out), nil
}

func (f *fakeProposalRepo) FindByID(ctx context.Context, id int64) (*models.Proposal, error) {
	p, ok := f.proposals[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *p
	return &clone, nil
}

func (f *fakeProposalRepo) Create(ctx context.Context, proposal *models.Proposal) error {
	f.nextID++
	proposal.ID = f.nextID
	clone := *proposal
	f.proposals[proposal.ID] = &clone
	return nil
}

func (f *fakeProposalRepo) UpdateStatusIf(ctx context.Context, id int64, from, to models.ProposalStatus) error {
	p, ok := f.proposals[id]
	if !ok || p.Status != from {
		return repository.ErrStaleStatus
	}
	p.Status = to
	return nil
}

func (f *fakeProposalRepo) RecordDuplicateOutcome(ctx context.Context, id int64, status models.ProposalStatus, closestID *int64, distance *float64) error {
	p, ok := f.proposals[id]
	if !ok || p.Status != models.StatusSubmitted {
		return repository.ErrStaleStatus
	}
	p.Status = status
	p.DuplicateOfID = closestID
	p.DuplicateDistance = distance
	return nil
}

func (f *fakeProposalRepo) SetReviewRound(ctx context.Context, id int64, round int, at time.Time, r1, r2 models.ReviewerRef, from, to models.ProposalStatus) error {
	p, ok := f.proposals[id]
	if !ok || p.Status != from {
		return repository.ErrStaleStatus
	}
	if err := p.SetRound(round, at, r1, r2); err != nil {
		return err
	}
	p.Status = to
	return nil
}

type fakeLecturerRepo struct {
	lecturers map[string]models.Lecturer
}

func newFakeLecturerRepo(codes ...string) *fakeLecturerRepo {
	repo := &fakeLecturerRepo{lecturers: make(map[string]models.Lecturer)}
	for _, code := range codes {
		repo.lecturers[code] = models.Lecturer{Code: code, FullName: "Lecturer " + code, Email: code + "@uni.edu", Active: true}
	}
	return repo
}

func (f *fakeLecturerRepo) List(ctx context.Context, filter models.LecturerFilter) ([]models.Lecturer, int, error) {
	var out []models.Lecturer
	for _, l := range f.lecturers {
		out = append(out, l)
	}
	return out, len(out), nil
}

func (f *fakeLecturerRepo) FindByCode(ctx context.Context, code string) (*models.Lecturer, error) {
	l, ok := f.lecturers[code]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &l, nil
}

func (f *fakeLecturerRepo) ListActiveCodes(ctx context.Context) ([]string, error) {
	var codes []string
	for code, l := range f.lecturers {
		if l.Active {
			codes = append(codes, code)
		}
	}
	return codes, nil
}

func (f *fakeLecturerRepo) Create(ctx context.Context, lecturer *models.Lecturer) error {
	f.lecturers[lecturer.Code] = *lecturer
	return nil
}

type fakeSemesterRepo struct {
	semesters map[string]*models.Semester
	decided   map[string]bool
}

func newFakeSemesterRepo(seed ...*models.Semester) *fakeSemesterRepo {
	repo := &fakeSemesterRepo{semesters: make(map[string]*models.Semester), decided: make(map[string]bool)}
	for _, s := range seed {
		repo.semesters[s.ID] = s
	}
	return repo
}

func (f *fakeSemesterRepo) List(ctx context.Context, filter models.SemesterFilter) ([]models.Semester, int, error) {
	var out []models.Semester
	for _, s := range f.semesters {
		out = append(out, *s)
	}
	return out, len(out), nil
}

func (f *fakeSemesterRepo) FindByID(ctx context.Context, id string) (*models.Semester, error) {
	s, ok := f.semesters[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *s
	return &clone, nil
}

func (f *fakeSemesterRepo) FindCurrent(ctx context.Context) (*models.Semester, error) {
	for _, s := range f.semesters {
		if s.Current {
			clone := *s
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeSemesterRepo) Create(ctx context.Context, semester *models.Semester) error {
	if semester.ID == "" {
		semester.ID = fmt.Sprintf("sem-%d", len(f.semesters)+1)
	}
	clone := *semester
	f.semesters[semester.ID] = &clone
	return nil
}

func (f *fakeSemesterRepo) SetReviewBoard(ctx context.Context, id string, seats [models.BoardSeatCount]string) error {
	s, ok := f.semesters[id]
	if !ok {
		return sql.ErrNoRows
	}
	s.BoardReviewer1Code = &seats[0]
	s.BoardReviewer2Code = &seats[1]
	s.BoardReviewer3Code = &seats[2]
	s.BoardReviewer4Code = &seats[3]
	return nil
}

func (f *fakeSemesterRepo) HasBoardDecisions(ctx context.Context, id string) (bool, error) {
	return f.decided[id], nil
}

type fakeBoardRepo struct {
	decisions map[int64][]models.BoardDecision
}

func newFakeBoardRepo() *fakeBoardRepo {
	return &fakeBoardRepo{decisions: make(map[int64][]models.BoardDecision)}
}

func (f *fakeBoardRepo) ListByProposal(ctx context.Context, proposalID int64) ([]models.BoardDecision, error) {
	return f.decisions[proposalID], nil
}

func (f *fakeBoardRepo) Record(ctx context.Context, decision *models.BoardDecision) ([]models.BoardDecision, error) {
	existing := f.decisions[decision.ProposalID]
	if len(existing) >= models.BoardQuorum {
		return existing, repository.ErrQuorumLocked
	}
	for _, d := range existing {
		if d.Seat == decision.Seat {
			return existing, repository.ErrSeatTaken
		}
	}
	if decision.DecidedAt.IsZero() {
		decision.DecidedAt = time.Now().UTC()
	}
	f.decisions[decision.ProposalID] = append(existing, *decision)
	return f.decisions[decision.ProposalID], nil
}

type fakeCouncilRepo struct {
	councils map[string]*models.Council
}

func newFakeCouncilRepo(seed ...*models.Council) *fakeCouncilRepo {
	repo := &fakeCouncilRepo{councils: make(map[string]*models.Council)}
	for _, c := range seed {
		repo.councils[c.ID] = c
	}
	return repo
}

func (f *fakeCouncilRepo) Create(ctx context.Context, council *models.Council) error {
	if council.ID == "" {
		council.ID = fmt.Sprintf("council-%d", len(f.councils)+1)
	}
	clone := *council
	f.councils[council.ID] = &clone
	return nil
}

func (f *fakeCouncilRepo) FindByID(ctx context.Context, id string) (*models.Council, error) {
	c, ok := f.councils[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *c
	return &clone, nil
}

func (f *fakeCouncilRepo) ListBySemester(ctx context.Context, semesterID string) ([]models.Council, error) {
	var out []models.Council
	for _, c := range f.councils {
		if c.SemesterID == semesterID {
			out = append(out, *c)
		}
	}
	return out, nil
}

type fakeScheduleRepo struct {
	byID   map[string]*models.DefenseSchedule
	bySlot map[string]*models.DefenseSchedule
	nextID int
}

func newFakeScheduleRepo() *fakeScheduleRepo {
	return &fakeScheduleRepo{byID: make(map[string]*models.DefenseSchedule), bySlot: make(map[string]*models.DefenseSchedule)}
}

func slotKey(date time.Time, start, end string) string {
	return date.Format("2006-01-02") + start + end
}

func (f *fakeScheduleRepo) Create(ctx context.Context, schedule *models.DefenseSchedule) error {
	key := slotKey(schedule.DefenseDate, schedule.StartTime, schedule.EndTime)
	if _, taken := f.bySlot[key]; taken {
		return repository.ErrSlotConflict
	}
	f.nextID++
	if schedule.ID == "" {
		schedule.ID = fmt.Sprintf("sched-%d", f.nextID)
	}
	clone := *schedule
	f.byID[schedule.ID] = &clone
	f.bySlot[key] = &clone
	return nil
}

func (f *fakeScheduleRepo) FindByID(ctx context.Context, id string) (*models.DefenseSchedule, error) {
	s, ok := f.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *s
	return &clone, nil
}

func (f *fakeScheduleRepo) FindBySlot(ctx context.Context, date time.Time, start, end string) (*models.DefenseSchedule, error) {
	s, ok := f.bySlot[slotKey(date, start, end)]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *s
	return &clone, nil
}

func (f *fakeScheduleRepo) ListByProposal(ctx context.Context, proposalID int64) ([]models.DefenseSchedule, error) {
	var out []models.DefenseSchedule
	for _, s := range f.byID {
		if s.ProposalID == proposalID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeScheduleRepo) List(ctx context.Context, filter models.ScheduleFilter) ([]models.DefenseSchedule, int, error) {
	var out []models.DefenseSchedule
	for _, s := range f.byID {
		out = append(out, *s)
	}
	return out, len(out), nil
}

func (f *fakeScheduleRepo) UpdateStatus(ctx context.Context, id string, status models.ScheduleStatus) error {
	s, ok := f.byID[id]
	if !ok {
		return sql.ErrNoRows
	}
	s.Status = status
	return nil
}

type fakeResultRepo struct {
	results map[string]*models.DefenseResult
}

func newFakeResultRepo() *fakeResultRepo {
	return &fakeResultRepo{results: make(map[string]*models.DefenseResult)}
}

func (f *fakeResultRepo) Create(ctx context.Context, result *models.DefenseResult) error {
	if _, exists := f.results[result.ScheduleID]; exists {
		return repository.ErrResultExists
	}
	if result.ID == "" {
		result.ID = "result-" + result.ScheduleID
	}
	clone := *result
	f.results[result.ScheduleID] = &clone
	return nil
}

func (f *fakeResultRepo) FindByScheduleID(ctx context.Context, scheduleID string) (*models.DefenseResult, error) {
	r, ok := f.results[scheduleID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *r
	return &clone, nil
}

func strPtr(s string) *string { return &s }

func seededSemester() *models.Semester {
	return &models.Semester{
		ID:                 "sem-1",
		Name:               "Fall 2026",
		Code:               "FA26",
		AcademicYear:       "2026",
		Current:            true,
		BoardReviewer1Code: strPtr("GV01"),
		BoardReviewer2Code: strPtr("GV02"),
		BoardReviewer3Code: strPtr("GV03"),
		BoardReviewer4Code: strPtr("GV04"),
	}
}

func seededProposal(status models.ProposalStatus) *models.Proposal {
	return &models.Proposal{
		ID:                1,
		Title:             "Campus navigation assistant",
		Context:           "Students struggle to locate rooms",
		Description:       "An indoor navigation app",
		PrimaryMentorCode: "GV10",
		SemesterID:        "sem-1",
		Status:            status,
	}
}

func fiveMemberCouncil(id string, codes [5]string) *models.Council {
	return &models.Council{
		ID:         id,
		Name:       "Council " + id,
		SemesterID: "sem-1",
		Members: []models.CouncilMember{
			{LecturerCode: codes[0], LecturerName: "Lecturer " + codes[0], Role: models.RolePresident},
			{LecturerCode: codes[1], LecturerName: "Lecturer " + codes[1], Role: models.RoleSecretary},
			{LecturerCode: codes[2], LecturerName: "Lecturer " + codes[2], Role: models.RoleReviewer},
			{LecturerCode: codes[3], LecturerName: "Lecturer " + codes[3], Role: models.RoleReviewer},
			{LecturerCode: codes[4], LecturerName: "Lecturer " + codes[4], Role: models.RoleReviewer},
		},
	}
}
