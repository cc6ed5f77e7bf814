package core

// error_messages.go maps reshape failures to response status, a stable code
// for support reference and the plain-text body returned to the uploader.
//
//	FILE001 - Unsupported file type (400). Fixed message, nothing processed.
//	FILE002 - Empty file (500).
//	FILE003 - File could not be decoded as CSV or workbook (500).
//	REQ001  - Unknown reshape mode (404).
//	FILE004 - No file was selected (400).
//	FILE005 - File exceeds the size limit (413).
//	VAL004  - Required upload column missing, overwrite mode (500).
//	VAL007  - Upload has fewer rows than the template needs (500).
//	REF001  - Reference file could not be read (500).
//	REF002  - Reference template too narrow for the overwrite plan (500).
//	UPL002  - All processing slots busy (503).
//	UPL004  - Request cancelled (500).
//	UPL005  - Request timed out (504).
//	ERR000  - Anything else (500).
//
// Every 5xx body starts with processingFailedPrefix followed by the cause,
// so operators can read the underlying message straight from the response.

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/JonMunkholm/reshape/internal/ingest"
	"github.com/JonMunkholm/reshape/internal/reference"
	"github.com/JonMunkholm/reshape/internal/reshape"
)

// UnsupportedFileMessage is the fixed body for FILE001.
const UnsupportedFileMessage = "対応していないファイル形式です (CSV, Excelのみ)"

const processingFailedPrefix = "ファイルの処理中にエラーが発生しました: "

// Sentinels raised by the transport layer before a reshape starts.
var (
	ErrNoFile       = errors.New("no file provided")
	ErrFileTooLarge = errors.New("file too large")
)

// UserMessage provides user-facing error information.
type UserMessage struct {
	Message string // What happened
	Action  string // What to do about it
	Code    string // Support reference
	Status  int    // HTTP status
}

type errorRule struct {
	target error
	msg    UserMessage
}

// errorRules is checked in order with errors.Is; the first match wins.
var errorRules = []errorRule{
	{ingest.ErrUnsupportedFileType, UserMessage{
		Message: UnsupportedFileMessage,
		Action:  "CSV (.csv) または Excel (.xlsx, .xls) ファイルを選択してください",
		Code:    "FILE001",
		Status:  http.StatusBadRequest,
	}},
	{ErrUnknownMode, UserMessage{
		Message: "Unknown reshape mode",
		Action:  "Use overwrite or conform",
		Code:    "REQ001",
		Status:  http.StatusNotFound,
	}},
	{ErrNoFile, UserMessage{
		Message: "No file was selected",
		Action:  "Please select a CSV or Excel file to upload",
		Code:    "FILE004",
		Status:  http.StatusBadRequest,
	}},
	{ErrFileTooLarge, UserMessage{
		Message: "File exceeds maximum size limit",
		Action:  "Split the file into smaller chunks",
		Code:    "FILE005",
		Status:  http.StatusRequestEntityTooLarge,
	}},
	{ingest.ErrEmptyFile, UserMessage{
		Message: "The uploaded file is empty",
		Action:  "Upload a file with a header row",
		Code:    "FILE002",
		Status:  http.StatusInternalServerError,
	}},
	{ingest.ErrInvalidFile, UserMessage{
		Message: "The file could not be read",
		Action:  "Save the file as CSV (UTF-8 or Shift_JIS) or Excel and try again",
		Code:    "FILE003",
		Status:  http.StatusInternalServerError,
	}},
	{reshape.ErrMissingColumn, UserMessage{
		Message: "Required column is missing from the upload",
		Action:  "インポートファイルのヘッダーを確認してください",
		Code:    "VAL004",
		Status:  http.StatusInternalServerError,
	}},
	{reshape.ErrRowCount, UserMessage{
		Message: "The upload has fewer rows than the reference needs",
		Action:  "Check that the upload covers every reference row",
		Code:    "VAL007",
		Status:  http.StatusInternalServerError,
	}},
	{reference.ErrLoad, UserMessage{
		Message: "The reference file could not be read",
		Action:  "Contact the administrator to check the reference file",
		Code:    "REF001",
		Status:  http.StatusInternalServerError,
	}},
	{reshape.ErrTargetOutOfRange, UserMessage{
		Message: "The reference file has fewer columns than expected",
		Action:  "Contact the administrator to check the reference file",
		Code:    "REF002",
		Status:  http.StatusInternalServerError,
	}},
	{ErrBusy, UserMessage{
		Message: "System is busy processing other uploads",
		Action:  "Please wait a moment and try again",
		Code:    "UPL002",
		Status:  http.StatusServiceUnavailable,
	}},
	{context.Canceled, UserMessage{
		Message: "Request was cancelled",
		Action:  "Please try again",
		Code:    "UPL004",
		Status:  http.StatusInternalServerError,
	}},
	{context.DeadlineExceeded, UserMessage{
		Message: "Request timed out",
		Action:  "Try a smaller file or try again later",
		Code:    "UPL005",
		Status:  http.StatusGatewayTimeout,
	}},
}

// defaultMessage is returned when no rule matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
	Status:  http.StatusInternalServerError,
}

// MapError converts an error to its user message. nil maps to the zero value.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}
	for _, rule := range errorRules {
		if errors.Is(err, rule.target) {
			return rule.msg
		}
	}
	return defaultMessage
}

// ResponseText returns the plain-text body for err. Client errors get the
// mapped message; server errors get the processing-failed prefix and the
// cause, with missing columns named explicitly.
func ResponseText(err error) string {
	if err == nil {
		return ""
	}
	msg := MapError(err)
	if msg.Status < http.StatusInternalServerError {
		return msg.Message
	}

	var mce *reshape.MissingColumnError
	if errors.As(err, &mce) {
		return processingFailedPrefix + fmt.Sprintf(
			"インポートファイルに必要な列名が見つかりません: '%s'。%s。", mce.Column, msg.Action)
	}
	if errors.Is(err, reference.ErrLoad) {
		return processingFailedPrefix + "基準ファイルAの再読み込みに失敗しました: " + err.Error()
	}
	return processingFailedPrefix + err.Error()
}

// IsClientError reports whether err maps to a 4xx status.
func IsClientError(err error) bool {
	s := MapError(err).Status
	return s >= 400 && s < 500
}
