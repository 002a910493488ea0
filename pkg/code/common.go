package code

var (
	// 配置类错误 (在任何 I/O 之前返回)
	ErrorConfigLoad          = NewError(400, lang{en: "Failed to load configuration", zh_cn: "加载配置失败"})
	ErrorInvalidCollection   = NewError(401, lang{en: "Collection key must be <database>.<collection>", zh_cn: "集合名必须为 <database>.<collection> 格式"})
	ErrorInvalidStoreURI     = NewError(402, lang{en: "Store connection URI is empty or unsupported", zh_cn: "存储连接 URI 为空或不受支持"})
	ErrorInvalidVaultPath    = NewError(403, lang{en: "Vault path is not a directory", zh_cn: "笔记库路径不是目录"})
	ErrorInvalidMachineName  = NewError(404, lang{en: "Machine name is empty or contains a path separator", zh_cn: "机器名为空或包含路径分隔符"})
	ErrorInvalidMoveArgument = NewError(405, lang{en: "Move source and destination are required", zh_cn: "移动操作需要源路径和目标路径"})

	// 存储类错误
	ErrorStoreConnect = NewError(500, lang{en: "Failed to connect to link store", zh_cn: "连接链接存储失败"})
	ErrorStoreQuery   = NewError(501, lang{en: "Link store query failed", zh_cn: "链接存储查询失败"})
	ErrorStoreWrite   = NewError(502, lang{en: "Link store write failed", zh_cn: "链接存储写入失败"})

	// 文件系统类错误
	ErrorScanVault        = NewError(600, lang{en: "Failed to walk vault", zh_cn: "遍历笔记库失败"})
	ErrorNamespaceRemove  = NewError(601, lang{en: "Failed to clear machine link namespace", zh_cn: "清理机器链接命名空间失败"})
	ErrorSymlinkCreate    = NewError(602, lang{en: "Failed to create symlink", zh_cn: "创建符号链接失败"})
	ErrorSymlinkConflict  = NewError(603, lang{en: "A different file already exists at the symlink path", zh_cn: "符号链接路径已存在其他文件"})
	ErrorFileURLNotExist  = NewError(604, lang{en: "file URL target is non-existent", zh_cn: "file URL 指向的文件不存在 (non-existent)"})
	ErrorNoteRewrite      = NewError(605, lang{en: "Failed to rewrite note", zh_cn: "重写笔记失败"})
	ErrorNamespacePublish = NewError(607, lang{en: "Failed to publish rebuilt link namespace", zh_cn: "发布重建的链接命名空间失败"})
)
