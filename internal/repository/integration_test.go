//go:build integration

package repository_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"course-planner/internal/model"
	"course-planner/internal/repository"
	"course-planner/internal/search"
	"course-planner/internal/timeplace"
	"course-planner/pkg/database"
	pkgerrors "course-planner/pkg/errors"
)

// ═══════════════════════════════════════════════════════════
// Test Setup
// ═══════════════════════════════════════════════════════════

// 测试专用学年，避免与真实目录冲突
const testYear = 2099

var testDB *gorm.DB

func TestMain(m *testing.M) {
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		dsn = "host=localhost port=5433 user=planner password=planner_password dbname=course_planner_test sslmode=disable TimeZone=Asia/Seoul"
	}

	var err error
	testDB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "无法连接测试数据库: %v\n", err)
		os.Exit(1)
	}

	// 使用与线上一致的迁移文件建表
	sqlDB, err := testDB.DB()
	if err != nil {
		fmt.Fprintf(os.Stderr, "获取 sql.DB 失败: %v\n", err)
		os.Exit(1)
	}
	if err := database.RunMigrations(sqlDB, zap.NewNop()); err != nil {
		fmt.Fprintf(os.Stderr, "迁移失败: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()
	os.Exit(code)
}

func cleanupTerm(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		testDB.Where("year = ?", testYear).Delete(&model.Lecture{})
		testDB.Where("year = ?", testYear).Delete(&model.Timetable{})
		testDB.Where("year = ?", testYear).Delete(&model.Coursebook{})
		testDB.Where("year = ?", testYear).Delete(&model.TagList{})
	})
}

func newLecture(courseNumber, title, classification string, slots ...timeplace.MeetingSlot) model.Lecture {
	l := model.Lecture{
		Year:           testYear,
		Semester:       1,
		Classification: classification,
		Department:     "컴퓨터공학부",
		AcademicYear:   "3학년",
		CourseNumber:   courseNumber,
		LectureNumber:  "001",
		CourseTitle:    title,
		Credit:         3,
		Instructor:     "김교수",
	}
	l.SetSlots(slots)
	return l
}

func slot(day int, start, end string) timeplace.MeetingSlot {
	s, err := timeplace.SlotDraft{Day: &day, StartTime: &start, EndTime: &end}.Resolve()
	if err != nil {
		panic(err)
	}
	return s
}

// ═══════════════════════════════════════════════════════════
// Lecture
// ═══════════════════════════════════════════════════════════

func TestLecture_ReplaceTermAndSearch(t *testing.T) {
	cleanupTerm(t)
	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	first := []model.Lecture{
		newLecture("M1", "논리설계", "전필", slot(1, "09:00", "10:50")),
		newLecture("M2", "자료구조", "전선", slot(3, "14:00", "15:50")),
		newLecture("G1", "글쓰기의 기초", "교양"),
	}
	if err := repo.Lecture.ReplaceTerm(ctx, testYear, 1, first); err != nil {
		t.Fatalf("ReplaceTerm 失败: %v", err)
	}

	got, err := repo.Lecture.GetByIdentity(ctx, testYear, 1, "M1", "001")
	if err != nil {
		t.Fatalf("按标识查询失败: %v", err)
	}
	if len(got.Slots()) != 1 || got.Slots()[0].StartTime != "09:00" {
		t.Errorf("时段 JSON 往返不符: %+v", got.Slots())
	}
	if got.TimeMask().IsEmpty() {
		t.Error("掩码不应为空")
	}

	// 전공 → 分类限制 + 模糊标题
	pred, err := search.Build(search.Query{Year: testYear, Semester: 1, Title: "전공 논리"})
	if err != nil {
		t.Fatalf("构建查询失败: %v", err)
	}
	found, err := repo.Lecture.Search(ctx, pred, 0, 20)
	if err != nil {
		t.Fatalf("检索失败: %v", err)
	}
	if len(found) != 1 || found[0].CourseNumber != "M1" {
		t.Errorf("期望只命中 M1，实际 %d 条", len(found))
	}

	// 只允许周二（day=1）上午：M2（周四）与无时段的 G1 都应被排除
	mask := make([]int64, 7)
	mask[1] = int64(timeplace.EncodeMask([]timeplace.MeetingSlot{slot(1, "08:00", "12:00")})[1])
	pred, err = search.Build(search.Query{Year: testYear, Semester: 1, TimeMask: mask})
	if err != nil {
		t.Fatalf("构建查询失败: %v", err)
	}
	found, err = repo.Lecture.Search(ctx, pred, 0, 20)
	if err != nil {
		t.Fatalf("检索失败: %v", err)
	}
	if len(found) != 1 || found[0].CourseNumber != "M1" {
		t.Errorf("时间过滤期望只命中 M1，实际 %d 条", len(found))
	}

	// 整学期替换
	second := []model.Lecture{newLecture("M3", "운영체제", "전필", slot(2, "11:00", "12:15"))}
	if err := repo.Lecture.ReplaceTerm(ctx, testYear, 1, second); err != nil {
		t.Fatalf("再次 ReplaceTerm 失败: %v", err)
	}
	all, _ := repo.Lecture.ListByTerm(ctx, testYear, 1)
	if len(all) != 1 || all[0].CourseNumber != "M3" {
		t.Errorf("替换后期望只剩 M3，实际 %d 条", len(all))
	}
}

// ═══════════════════════════════════════════════════════════
// Timetable: Optimistic Lock
// ═══════════════════════════════════════════════════════════

func createTable(t *testing.T, repo *repository.Repository, title string) *model.Timetable {
	t.Helper()
	table := &model.Timetable{UserID: "it-user", Year: testYear, Semester: 1, Title: title}
	if err := repo.Timetable.Create(context.Background(), table); err != nil {
		t.Fatalf("创建时间表失败: %v", err)
	}
	return table
}

func TestTimetable_MutateAndConflict(t *testing.T) {
	cleanupTerm(t)
	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	table := createTable(t, repo, "나의 시간표")
	ref := newLecture("M1", "논리설계", "전필", slot(1, "09:00", "10:50"))
	entry := model.FromLecture(&ref, 3)

	// 两份副本模拟并发
	copy1, _ := repo.Timetable.GetByID(ctx, table.TimetableID)
	copy2, _ := repo.Timetable.GetByID(ctx, table.TimetableID)

	if err := repo.Timetable.Mutate(ctx, copy1, repository.TimetableMutation{Insert: []model.UserLecture{entry}}); err != nil {
		t.Fatalf("第一次变更应成功: %v", err)
	}
	if copy1.Version != copy2.Version+1 {
		t.Errorf("版本号应递增: %d → %d", copy2.Version, copy1.Version)
	}

	err := repo.Timetable.Mutate(ctx, copy2, repository.TimetableMutation{Insert: []model.UserLecture{entry}})
	if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
		t.Fatalf("期望 ErrOptimisticLock，得到: %v", err)
	}

	reloaded, err := repo.Timetable.GetByUserAndID(ctx, "it-user", table.TimetableID)
	if err != nil {
		t.Fatalf("重新读取失败: %v", err)
	}
	if len(reloaded.Lectures) != 1 {
		t.Fatalf("冲突的变更不应写入，实际条目数 %d", len(reloaded.Lectures))
	}

	holders, err := repo.Timetable.ListContainingLecture(ctx, testYear, 1, "M1", "001")
	if err != nil {
		t.Fatalf("ListContainingLecture 失败: %v", err)
	}
	if len(holders) != 1 || holders[0].TimetableID != table.TimetableID {
		t.Errorf("期望找到 1 张包含 M1 的时间表，实际 %d", len(holders))
	}

	// 删除条目
	id := reloaded.Lectures[0].UserLectureID
	if err := repo.Timetable.Mutate(ctx, reloaded, repository.TimetableMutation{Delete: []string{id}}); err != nil {
		t.Fatalf("删除条目失败: %v", err)
	}
	after, _ := repo.Timetable.GetByID(ctx, table.TimetableID)
	if len(after.Lectures) != 0 {
		t.Errorf("删除后不应有条目，实际 %d", len(after.Lectures))
	}
}

func TestTimetable_TitleUniquePerTerm(t *testing.T) {
	cleanupTerm(t)
	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	createTable(t, repo, "A")
	createTable(t, repo, "B")
	titles, err := repo.Timetable.ListTitles(ctx, "it-user", testYear, 1)
	if err != nil {
		t.Fatalf("ListTitles 失败: %v", err)
	}
	if len(titles) != 2 {
		t.Errorf("期望 2 个标题，实际 %v", titles)
	}

	dup := &model.Timetable{UserID: "it-user", Year: testYear, Semester: 1, Title: "A"}
	if err := repo.Timetable.Create(ctx, dup); err == nil {
		t.Error("同学期重复标题应违反唯一约束")
	}
}

// ═══════════════════════════════════════════════════════════
// Coursebook / TagList / Notification
// ═══════════════════════════════════════════════════════════

func TestCoursebook_Touch(t *testing.T) {
	cleanupTerm(t)
	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	existed, err := repo.Coursebook.Touch(ctx, testYear, 3)
	if err != nil || existed {
		t.Fatalf("首次登记应返回 existed=false: %v %v", existed, err)
	}
	existed, err = repo.Coursebook.Touch(ctx, testYear, 3)
	if err != nil || !existed {
		t.Fatalf("再次登记应返回 existed=true: %v %v", existed, err)
	}

	recent, err := repo.Coursebook.GetRecent(ctx)
	if err != nil {
		t.Fatalf("GetRecent 失败: %v", err)
	}
	if recent.Year != testYear || recent.Semester != 3 {
		t.Errorf("最近学期不符: %d-%d", recent.Year, recent.Semester)
	}
}

func TestTagList_Upsert(t *testing.T) {
	cleanupTerm(t)
	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	for _, credit := range []string{"3학점", "4학점"} {
		list := &model.TagList{
			Year: testYear, Semester: 1,
			Tags: datatypes.NewJSONType(model.TagSet{Credit: []string{credit}}),
		}
		if err := repo.TagList.Upsert(ctx, list); err != nil {
			t.Fatalf("Upsert 失败: %v", err)
		}
	}

	got, err := repo.TagList.GetByTerm(ctx, testYear, 1)
	if err != nil {
		t.Fatalf("GetByTerm 失败: %v", err)
	}
	if c := got.Tags.Data().Credit; len(c) != 1 || c[0] != "4학점" {
		t.Errorf("应以最后一次写入为准，实际 %v", c)
	}
}

func TestNotification_ListIncludesBroadcast(t *testing.T) {
	repo := repository.NewRepository(testDB)
	ctx := context.Background()
	user := fmt.Sprintf("it-user-%d", time.Now().UnixNano())
	other := user + "-other"

	list := []model.Notification{
		{UserID: &user, Type: model.NotificationLectureUpdate, Message: "mine"},
		{UserID: &other, Type: model.NotificationLectureUpdate, Message: "theirs"},
		{UserID: nil, Type: model.NotificationCoursebook, Message: "broadcast"},
	}
	if err := repo.Notification.BatchCreate(ctx, list); err != nil {
		t.Fatalf("BatchCreate 失败: %v", err)
	}
	t.Cleanup(func() {
		testDB.Where("user_id IN ?", []string{user, other}).Delete(&model.Notification{})
		testDB.Where("user_id IS NULL AND message = ?", "broadcast").Delete(&model.Notification{})
	})

	got, total, err := repo.Notification.ListForUser(ctx, user, 0, 100)
	if err != nil {
		t.Fatalf("ListForUser 失败: %v", err)
	}
	for _, n := range got {
		if n.Message == "theirs" {
			t.Error("不应看到其他用户的通知")
		}
	}
	if total < 2 {
		t.Errorf("期望至少 2 条（本人 + 广播），实际 %d", total)
	}
}
