package logtype

// Column schemas are static configuration: an ordered list of dotted
// field paths per log type, defining CSV column order and headers.
// Adding a log type is a data change here, not new branching logic.

// AuditLogDatePath is the audit path holding a raw epoch-seconds value
// that is converted to an ISO-8601 timestamp during projection.
const AuditLogDatePath = "auditLogEvent.logDate"

// AuditSysLogMessagePath is the audit path whose escaped newline/tab
// sequences are normalized and whose embedded JSON payload is
// re-serialized compactly during projection.
const AuditSysLogMessagePath = "auditLogEvent.auditLogEntry.sysLogMessage"

// schemas maps each log type to its ordered column paths.
var schemas = map[LogType][]string{
	APIAccess: {
		"timestamp",
		"clientIp",
		"httpMethod",
		"requestPath",
		"statusCode",
		"responseTimeMs",
		"apiClientId",
		"storeId",
		"userAgent",
		"requestId",
	},
	StoreAccess: {
		"timestamp",
		"clientIp",
		"httpMethod",
		"requestPath",
		"statusCode",
		"bytesSent",
		"referer",
		"userAgent",
		"storeId",
		"sessionId",
	},
	Audit: {
		"auditLogEvent.eventId",
		"auditLogEvent.eventTime",
		AuditLogDatePath,
		"auditLogEvent.principal.userId",
		"auditLogEvent.principal.userType",
		"auditLogEvent.auditLogEntry.operationType",
		"auditLogEvent.auditLogEntry.resourceType",
		"auditLogEvent.auditLogEntry.resourceId",
		AuditSysLogMessagePath,
		"auditLogEvent.source.ipAddress",
	},
}

// Schema returns the ordered column paths for a concrete log type. The
// returned slice must not be mutated.
func Schema(t LogType) []string {
	return schemas[t]
}
