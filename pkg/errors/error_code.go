package errors

const (
	RequestParameterInvalid int = 4001
	RequestDataNotExisted   int = 4004

	CodeInternalError  int = 5000
	CodeInvalidData    int = 5001
	CodeDatabaseError  int = 5002
	CodeSchemaMismatch int = 5004

	CodeIngestionError int = 6001

	CodeInitializeError int = 7001
	CodeLackOfConfig    int = 7002

	CodeRemoteServiceError int = 8001
	CodeInvalidArgument    int = 8002
)
