package logger

// 统一的日志字段命名常量
// 用于确保整个项目中日志字段命名的一致性，便于日志查询和分析
const (
	// FieldMethod 方法名称字段
	FieldMethod = "method"

	// FieldVault 笔记库根目录字段
	FieldVault = "vault"

	// FieldMachine 机器名字段
	FieldMachine = "machine"

	// FieldNotePath 笔记相对路径字段
	FieldNotePath = "notePath"

	// FieldLine 行号字段
	FieldLine = "line"

	// FieldURI 链接目标 URI 字段
	FieldURI = "uri"

	// FieldPath 文件系统路径字段
	FieldPath = "path"

	// FieldCollection 存储集合字段
	FieldCollection = "collection"

	// FieldStore 存储后端类型字段
	FieldStore = "store"

	// FieldRunID 同步批次 ID 字段
	FieldRunID = "runId"

	// FieldCount 数量字段
	FieldCount = "count"

	// FieldDuration 耗时字段
	FieldDuration = "duration"

	// FieldTask 定时任务名称字段
	FieldTask = "task"
)
