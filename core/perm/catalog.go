package perm

// Actions
const (
	ActionCreate   = "create"
	ActionRead     = "read"
	ActionUpdate   = "update"
	ActionDelete   = "delete"
	ActionManage   = "manage"
	ActionMark     = "mark"
	ActionSubmit   = "submit"
	ActionPay      = "pay"
	ActionGenerate = "generate"
)

// Permission strings, as seeded by the backend's RBAC setup. UI code must
// reference these by symbol, never by ad-hoc literal: a typo'd literal
// silently disables a feature instead of failing to compile.
const (
	// System
	SystemManage = "system.manage" // subsumes every permission

	// Users
	UserCreate = "user.create"
	UserRead   = "user.read"
	UserUpdate = "user.update"
	UserDelete = "user.delete"
	UserManage = "user.manage"

	// Roles
	RoleCreate = "role.create"
	RoleRead   = "role.read"
	RoleUpdate = "role.update"
	RoleDelete = "role.delete"
	RoleManage = "role.manage"

	// Permissions
	PermissionCreate = "permission.create"
	PermissionRead   = "permission.read"
	PermissionUpdate = "permission.update"
	PermissionDelete = "permission.delete"
	PermissionManage = "permission.manage"

	// Attendance
	AttendanceMark      = "attendance.mark"
	AttendanceReadSelf  = "attendance.read.self"
	AttendanceReadClass = "attendance.read.class"
	AttendanceReadChild = "attendance.read.child"
	AttendanceReadAll   = "attendance.read.all"
	AttendanceUpdate    = "attendance.update"
	AttendanceDelete    = "attendance.delete"
	AttendanceManage    = "attendance.manage"

	// Students
	StudentCreate     = "student.create"
	StudentRead       = "student.read"
	StudentReadSelf   = "student.read.self"
	StudentUpdate     = "student.update"
	StudentUpdateSelf = "student.update.self"
	StudentDelete     = "student.delete"
	StudentManage     = "student.manage"

	// Grades
	GradeCreate    = "grade.create"
	GradeReadSelf  = "grade.read.self"
	GradeReadClass = "grade.read.class"
	GradeReadChild = "grade.read.child"
	GradeReadAll   = "grade.read.all"
	GradeUpdate    = "grade.update"
	GradeDelete    = "grade.delete"
	GradeManage    = "grade.manage"

	// Assignments
	AssignmentCreate    = "assignment.create"
	AssignmentReadSelf  = "assignment.read.self"
	AssignmentReadClass = "assignment.read.class"
	AssignmentReadAll   = "assignment.read.all"
	AssignmentUpdate    = "assignment.update"
	AssignmentDelete    = "assignment.delete"
	AssignmentSubmit    = "assignment.submit"
	AssignmentManage    = "assignment.manage"

	// Profiles
	ProfileReadSelf   = "profile.read.self"
	ProfileReadAll    = "profile.read.all"
	ProfileUpdateSelf = "profile.update.self"
	ProfileUpdateAll  = "profile.update.all"
	ProfileManage     = "profile.manage"

	// Fees
	FeeCreate    = "fee.create"
	FeeReadSelf  = "fee.read.self"
	FeeReadChild = "fee.read.child"
	FeeReadAll   = "fee.read.all"
	FeeUpdate    = "fee.update"
	FeeDelete    = "fee.delete"
	FeePay       = "fee.pay"
	FeeManage    = "fee.manage"

	// Classes
	ClassCreate = "class.create"
	ClassRead   = "class.read"
	ClassUpdate = "class.update"
	ClassDelete = "class.delete"
	ClassManage = "class.manage"

	// Reports
	ReportGenerate  = "report.generate"
	ReportReadSelf  = "report.read.self"
	ReportReadClass = "report.read.class"
	ReportReadChild = "report.read.child"
	ReportReadAll   = "report.read.all"
	ReportManage    = "report.manage"
)

// Resources groups the catalog by resource, in catalog order.
var Resources = map[string][]string{
	"system": {SystemManage},
	"user": {
		UserCreate, UserRead, UserUpdate, UserDelete, UserManage,
	},
	"role": {
		RoleCreate, RoleRead, RoleUpdate, RoleDelete, RoleManage,
	},
	"permission": {
		PermissionCreate, PermissionRead, PermissionUpdate, PermissionDelete, PermissionManage,
	},
	"attendance": {
		AttendanceMark, AttendanceReadSelf, AttendanceReadClass, AttendanceReadChild,
		AttendanceReadAll, AttendanceUpdate, AttendanceDelete, AttendanceManage,
	},
	"student": {
		StudentCreate, StudentRead, StudentReadSelf, StudentUpdate, StudentUpdateSelf,
		StudentDelete, StudentManage,
	},
	"grade": {
		GradeCreate, GradeReadSelf, GradeReadClass, GradeReadChild, GradeReadAll,
		GradeUpdate, GradeDelete, GradeManage,
	},
	"assignment": {
		AssignmentCreate, AssignmentReadSelf, AssignmentReadClass, AssignmentReadAll,
		AssignmentUpdate, AssignmentDelete, AssignmentSubmit, AssignmentManage,
	},
	"profile": {
		ProfileReadSelf, ProfileReadAll, ProfileUpdateSelf, ProfileUpdateAll, ProfileManage,
	},
	"fee": {
		FeeCreate, FeeReadSelf, FeeReadChild, FeeReadAll, FeeUpdate, FeeDelete, FeePay, FeeManage,
	},
	"class": {
		ClassCreate, ClassRead, ClassUpdate, ClassDelete, ClassManage,
	},
	"report": {
		ReportGenerate, ReportReadSelf, ReportReadClass, ReportReadChild, ReportReadAll, ReportManage,
	},
}

// All returns every permission string in the catalog.
func All() []string {
	all := make([]string, 0, 72)
	for _, perms := range Resources {
		all = append(all, perms...)
	}
	return all
}
