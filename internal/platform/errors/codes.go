// Package errors provides structured error handling with machine-readable codes.
package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Account errors
	CodeAccountEmailEmpty        Code = "ACCOUNT_EMAIL_EMPTY"
	CodeAccountEmailTaken        Code = "ACCOUNT_EMAIL_TAKEN"
	CodeAccountPasswordTooShort  Code = "ACCOUNT_PASSWORD_TOO_SHORT"
	CodeAccountCredentialsWrong  Code = "ACCOUNT_CREDENTIALS_WRONG"
	CodeAccountNotFound          Code = "ACCOUNT_NOT_FOUND"
	CodeAccountSessionInvalid    Code = "ACCOUNT_SESSION_INVALID"
	CodeAccountProjectLimit      Code = "ACCOUNT_PROJECT_LIMIT_REACHED"
	CodeAccountGenerationLimit   Code = "ACCOUNT_GENERATION_LIMIT_REACHED"
	CodeAccountStateInvalid      Code = "ACCOUNT_STATE_INVALID"
	CodeAccountStateTransitionBad Code = "ACCOUNT_STATE_TRANSITION_INVALID"

	// Project errors
	CodeProjectURLEmpty      Code = "PROJECT_URL_EMPTY"
	CodeProjectURLInvalid    Code = "PROJECT_URL_INVALID"
	CodeProjectURLTaken      Code = "PROJECT_URL_TAKEN"
	CodeProjectNameEmpty     Code = "PROJECT_NAME_EMPTY"
	CodeProjectNotFound      Code = "PROJECT_NOT_FOUND"
	CodeProjectNotScanned    Code = "PROJECT_NOT_SCANNED"
	CodeProjectTypeInvalid   Code = "PROJECT_TYPE_INVALID"
	CodeProjectPageNotFound  Code = "PROJECT_PAGE_NOT_FOUND"
	CodeCompetitorNotFound   Code = "COMPETITOR_NOT_FOUND"
	CodeKeywordTextEmpty     Code = "KEYWORD_TEXT_EMPTY"
	CodeKeywordNotFound      Code = "KEYWORD_NOT_FOUND"

	// Content errors
	CodeSuggestionNotFound      Code = "SUGGESTION_NOT_FOUND"
	CodeSuggestionTitleEmpty    Code = "SUGGESTION_TITLE_EMPTY"
	CodeSuggestionScoreInvalid  Code = "SUGGESTION_SCORE_INVALID"
	CodeContentTypeInvalid      Code = "CONTENT_TYPE_INVALID"
	CodePostNotFound            Code = "POST_NOT_FOUND"
	CodePostAlreadyPublished    Code = "POST_ALREADY_PUBLISHED"
	CodePostNotReady            Code = "POST_NOT_READY"
	CodeSectionNotFound         Code = "SECTION_NOT_FOUND"
	CodeResearchLinkNotFound    Code = "RESEARCH_LINK_NOT_FOUND"
	CodePipelineStepInvalid     Code = "PIPELINE_STEP_INVALID"

	// Worker errors
	CodeTaskTypeUnknown   Code = "TASK_TYPE_UNKNOWN"
	CodeTaskPayloadBad    Code = "TASK_PAYLOAD_INVALID"
	CodeTaskNotFound      Code = "TASK_NOT_FOUND"

	// Publisher errors
	CodePublishEndpointMissing Code = "PUBLISH_ENDPOINT_MISSING"
	CodePublishRejected        Code = "PUBLISH_REJECTED"
	CodePublishGrantInvalid    Code = "PUBLISH_GRANT_INVALID"

	// Provider errors
	CodeProviderUnavailable Code = "PROVIDER_UNAVAILABLE"
	CodeProviderRejected    Code = "PROVIDER_REJECTED"
	CodeProviderBadOutput   Code = "PROVIDER_BAD_OUTPUT"
)

// HTTPStatus maps a code to the HTTP status used by web handlers.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeAccountNotFound, CodeProjectNotFound, CodeProjectPageNotFound,
		CodeCompetitorNotFound, CodeKeywordNotFound, CodeSuggestionNotFound,
		CodePostNotFound, CodeSectionNotFound, CodeResearchLinkNotFound,
		CodeTaskNotFound:
		return http.StatusNotFound
	case CodeAccountCredentialsWrong, CodeAccountSessionInvalid:
		return http.StatusUnauthorized
	case CodeAccountProjectLimit, CodeAccountGenerationLimit:
		return http.StatusForbidden
	case CodeProjectURLTaken, CodeAccountEmailTaken, CodePostAlreadyPublished:
		return http.StatusConflict
	case CodeUnknown, CodeProviderUnavailable:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}
