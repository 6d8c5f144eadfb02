package service

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"gorm.io/gorm"

	"course-planner/internal/catalog"
	"course-planner/internal/dto"
	"course-planner/internal/model"
	"course-planner/internal/repository"
	"course-planner/internal/search"
	pkgerrors "course-planner/pkg/errors"
)

// ── Mock LectureRepository ──

type mockLectureRepo struct {
	mu       sync.Mutex
	lectures map[string]*model.Lecture
	seq      int
}

func newMockLectureRepo() *mockLectureRepo {
	return &mockLectureRepo{lectures: make(map[string]*model.Lecture)}
}

func (m *mockLectureRepo) add(l model.Lecture) *model.Lecture {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l.LectureID == "" {
		m.seq++
		l.LectureID = fmt.Sprintf("lec-%d", m.seq)
	}
	m.lectures[l.LectureID] = &l
	return &l
}

func (m *mockLectureRepo) GetByID(_ context.Context, id string) (*model.Lecture, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l, ok := m.lectures[id]; ok {
		cp := *l
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockLectureRepo) GetByIdentity(_ context.Context, year, semester int, courseNumber, lectureNumber string) (*model.Lecture, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.lectures {
		if l.Year == year && l.Semester == semester &&
			l.CourseNumber == courseNumber && l.LectureNumber == lectureNumber {
			cp := *l
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockLectureRepo) ListByTerm(_ context.Context, year, semester int) ([]model.Lecture, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.Lecture
	for _, l := range m.lectures {
		if l.Year == year && l.Semester == semester {
			result = append(result, *l)
		}
	}
	slices.SortFunc(result, func(a, b model.Lecture) int {
		if a.CourseNumber != b.CourseNumber {
			if a.CourseNumber < b.CourseNumber {
				return -1
			}
			return 1
		}
		if a.LectureNumber < b.LectureNumber {
			return -1
		}
		if a.LectureNumber > b.LectureNumber {
			return 1
		}
		return 0
	})
	return result, nil
}

func (m *mockLectureRepo) Search(_ context.Context, pred search.Predicate, offset, limit int) ([]model.Lecture, error) {
	m.mu.Lock()
	all := make([]model.Lecture, 0, len(m.lectures))
	for _, l := range m.lectures {
		all = append(all, *l)
	}
	m.mu.Unlock()
	slices.SortFunc(all, func(a, b model.Lecture) int {
		switch {
		case a.CourseNumber+a.LectureNumber < b.CourseNumber+b.LectureNumber:
			return -1
		case a.CourseNumber+a.LectureNumber > b.CourseNumber+b.LectureNumber:
			return 1
		}
		return 0
	})

	var matched []model.Lecture
	for _, l := range all {
		if search.Match(pred, l) {
			matched = append(matched, l)
		}
	}
	if offset >= len(matched) {
		return []model.Lecture{}, nil
	}
	end := min(offset+limit, len(matched))
	return matched[offset:end], nil
}

func (m *mockLectureRepo) ReplaceTerm(_ context.Context, year, semester int, lectures []model.Lecture) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, l := range m.lectures {
		if l.Year == year && l.Semester == semester {
			delete(m.lectures, id)
		}
	}
	for _, l := range lectures {
		if l.LectureID == "" {
			m.seq++
			l.LectureID = fmt.Sprintf("lec-%d", m.seq)
		}
		m.lectures[l.LectureID] = &l
	}
	return nil
}

// ── Mock TimetableRepository ──

type mockTimetableRepo struct {
	mu     sync.Mutex
	tables map[string]*model.Timetable
	// staleOnce 下次 Mutate 模拟一次并发写入导致的版本冲突
	staleOnce map[string]bool
}

func newMockTimetableRepo() *mockTimetableRepo {
	return &mockTimetableRepo{
		tables:    make(map[string]*model.Timetable),
		staleOnce: make(map[string]bool),
	}
}

func cloneTable(t *model.Timetable) *model.Timetable {
	cp := *t
	cp.Lectures = append([]model.UserLecture(nil), t.Lectures...)
	return &cp
}

func (m *mockTimetableRepo) Create(_ context.Context, table *model.Timetable) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tables {
		if t.UserID == table.UserID && t.Year == table.Year &&
			t.Semester == table.Semester && t.Title == table.Title {
			return gorm.ErrDuplicatedKey
		}
	}
	if table.Version == 0 {
		table.Version = 1
	}
	m.tables[table.TimetableID] = cloneTable(table)
	return nil
}

func (m *mockTimetableRepo) GetByUserAndID(_ context.Context, userID, id string) (*model.Timetable, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.tables[id]; ok && t.UserID == userID {
		return cloneTable(t), nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTimetableRepo) GetByID(_ context.Context, id string) (*model.Timetable, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.tables[id]; ok {
		return cloneTable(t), nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTimetableRepo) ListByUser(_ context.Context, userID string, year, semester int) ([]model.Timetable, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.Timetable
	for _, t := range m.tables {
		if t.UserID != userID {
			continue
		}
		if year != 0 && t.Year != year {
			continue
		}
		if semester != 0 && t.Semester != semester {
			continue
		}
		cp := *t
		cp.Lectures = nil
		result = append(result, cp)
	}
	return result, nil
}

func (m *mockTimetableRepo) ListTitles(_ context.Context, userID string, year, semester int) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var titles []string
	for _, t := range m.tables {
		if t.UserID == userID && t.Year == year && t.Semester == semester {
			titles = append(titles, t.Title)
		}
	}
	return titles, nil
}

func (m *mockTimetableRepo) ListContainingLecture(_ context.Context, year, semester int, courseNumber, lectureNumber string) ([]model.Timetable, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.Timetable
	for _, t := range m.tables {
		if t.Year != year || t.Semester != semester {
			continue
		}
		for _, l := range t.Lectures {
			if l.CourseNumber == courseNumber && l.LectureNumber == lectureNumber {
				result = append(result, *cloneTable(t))
				break
			}
		}
	}
	return result, nil
}

func (m *mockTimetableRepo) UpdateTitle(_ context.Context, table *model.Timetable, title string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.tables[table.TimetableID]
	if !ok || stored.Version != table.Version {
		return pkgerrors.ErrOptimisticLock
	}
	stored.Title = title
	stored.Version++
	table.Title = title
	table.Version = stored.Version
	return nil
}

func (m *mockTimetableRepo) Delete(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.tables[id]; ok && t.UserID == userID {
		delete(m.tables, id)
		return nil
	}
	return gorm.ErrRecordNotFound
}

func (m *mockTimetableRepo) Mutate(_ context.Context, table *model.Timetable, mut repository.TimetableMutation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.tables[table.TimetableID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if m.staleOnce[table.TimetableID] {
		delete(m.staleOnce, table.TimetableID)
		stored.Version++
	}
	if stored.Version != table.Version {
		return pkgerrors.ErrOptimisticLock
	}

	lectures := stored.Lectures[:0:0]
	for _, l := range stored.Lectures {
		if slices.Contains(mut.Delete, l.UserLectureID) {
			continue
		}
		for _, r := range mut.Replace {
			if r.UserLectureID == l.UserLectureID {
				r.TimetableID = stored.TimetableID
				l = r
			}
		}
		for _, op := range mut.Patch {
			if op.UserLectureID == l.UserLectureID {
				op.Patch.Apply(&l)
			}
		}
		lectures = append(lectures, l)
	}
	for _, l := range mut.Insert {
		l.TimetableID = stored.TimetableID
		lectures = append(lectures, l)
	}

	now := time.Now()
	stored.Lectures = lectures
	stored.Version++
	stored.UpdatedAt = now
	table.Version = stored.Version
	table.UpdatedAt = now
	return nil
}

// ── Mock NotificationRepository ──

type mockNotificationRepo struct {
	mu   sync.Mutex
	list []model.Notification
}

func newMockNotificationRepo() *mockNotificationRepo {
	return &mockNotificationRepo{}
}

func (m *mockNotificationRepo) Create(_ context.Context, n *model.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.list = append(m.list, *n)
	return nil
}

func (m *mockNotificationRepo) BatchCreate(_ context.Context, ns []model.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.list = append(m.list, ns...)
	return nil
}

func (m *mockNotificationRepo) ListForUser(_ context.Context, userID string, offset, limit int) ([]model.Notification, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var matched []model.Notification
	for i := len(m.list) - 1; i >= 0; i-- {
		n := m.list[i]
		if n.UserID == nil || *n.UserID == userID {
			matched = append(matched, n)
		}
	}
	total := int64(len(matched))
	if offset >= len(matched) {
		return []model.Notification{}, total, nil
	}
	return matched[offset:min(offset+limit, len(matched))], total, nil
}

func (m *mockNotificationRepo) all() []model.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Notification(nil), m.list...)
}

// ── Mock CoursebookRepository ──

type mockCoursebookRepo struct {
	mu    sync.Mutex
	books map[catalog.Term]*model.Coursebook
}

func newMockCoursebookRepo() *mockCoursebookRepo {
	return &mockCoursebookRepo{books: make(map[catalog.Term]*model.Coursebook)}
}

func (m *mockCoursebookRepo) GetRecent(_ context.Context) (*model.Coursebook, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var recent *model.Coursebook
	for _, b := range m.books {
		if recent == nil || b.Year > recent.Year ||
			(b.Year == recent.Year && b.Semester > recent.Semester) {
			recent = b
		}
	}
	if recent == nil {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *recent
	return &cp, nil
}

func (m *mockCoursebookRepo) List(_ context.Context) ([]model.Coursebook, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.Coursebook
	for _, b := range m.books {
		result = append(result, *b)
	}
	return result, nil
}

func (m *mockCoursebookRepo) Touch(_ context.Context, year, semester int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := catalog.Term{Year: year, Semester: semester}
	now := time.Now()
	if b, ok := m.books[key]; ok {
		b.UpdatedAt = now
		return true, nil
	}
	b := &model.Coursebook{Year: year, Semester: semester}
	b.CreatedAt, b.UpdatedAt = now, now
	m.books[key] = b
	return false, nil
}

// ── Mock TagListRepository ──

type mockTagListRepo struct {
	mu    sync.Mutex
	lists map[catalog.Term]*model.TagList
	reads int
}

func newMockTagListRepo() *mockTagListRepo {
	return &mockTagListRepo{lists: make(map[catalog.Term]*model.TagList)}
}

func (m *mockTagListRepo) GetByTerm(_ context.Context, year, semester int) (*model.TagList, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	if l, ok := m.lists[catalog.Term{Year: year, Semester: semester}]; ok {
		cp := *l
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTagListRepo) Upsert(_ context.Context, list *model.TagList) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *list
	cp.UpdatedAt = time.Now()
	m.lists[catalog.Term{Year: list.Year, Semester: list.Semester}] = &cp
	return nil
}

// ── Mock 目录源 / 缓存 ──

type mockSource struct {
	lines map[catalog.Term][]catalog.Line
}

func (m *mockSource) Fetch(_ context.Context, term catalog.Term) ([]catalog.Line, error) {
	lines, ok := m.lines[term]
	if !ok {
		return nil, fmt.Errorf("%s: %w", term, catalog.ErrSourceNotFound)
	}
	return lines, nil
}

type mockCache struct {
	mu      sync.Mutex
	entries map[string]any
	deleted []string
}

func newMockCache() *mockCache {
	return &mockCache{entries: make(map[string]any)}
}

func (m *mockCache) GetJSON(_ context.Context, key string, dst any) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.entries[key]
	if !ok {
		return false, nil
	}
	if resp, ok := dst.(*dto.TagListResponse); ok {
		*resp = *(v.(*dto.TagListResponse))
	}
	return true, nil
}

func (m *mockCache) SetJSON(_ context.Context, key string, v any, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = v
	return nil
}

func (m *mockCache) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.entries, k)
		m.deleted = append(m.deleted, k)
	}
	return nil
}

// ── 测试仓储聚合 ──

type mockRepos struct {
	lecture      *mockLectureRepo
	timetable    *mockTimetableRepo
	notification *mockNotificationRepo
	coursebook   *mockCoursebookRepo
	tagList      *mockTagListRepo
}

func newMockRepos() (*repository.Repository, *mockRepos) {
	m := &mockRepos{
		lecture:      newMockLectureRepo(),
		timetable:    newMockTimetableRepo(),
		notification: newMockNotificationRepo(),
		coursebook:   newMockCoursebookRepo(),
		tagList:      newMockTagListRepo(),
	}
	return &repository.Repository{
		Lecture:      m.lecture,
		Timetable:    m.timetable,
		Notification: m.notification,
		Coursebook:   m.coursebook,
		TagList:      m.tagList,
	}, m
}
