package remote

import "errors"

var (
	// ErrEmptyResponse — сервис ответил не-2xx, телом без envelope или
	// пустым data.
	ErrEmptyResponse = errors.New("empty response from workflow service")

	// ErrMissingHistoryID — старт шага вернул ответ без workflowHistoryId.
	ErrMissingHistoryID = errors.New("step start returned no history id")
)
