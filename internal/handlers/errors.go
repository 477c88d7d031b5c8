package handlers

import (
	"github.com/gin-gonic/gin"
)

// User-facing messages for non-auth failures. Auth messages live in the auth
// package so the session middleware can share them.
const (
	MsgInvalidRequest      = "Invalid request"
	MsgInternal            = "Something went wrong. Please try again."
	MsgInvalidScore        = "score must be a finite number"
	MsgPathRequired        = "path is required"
	MsgVideoRequired       = "A video file is required"
	MsgUploadTooLarge      = "The uploaded file is too large"
	MsgConsentRequired     = "Consent is required before screening"
	MsgAnalyzerUnavailable = "The screening service is unavailable"
	MsgAnalyzerFailed      = "The video could not be analyzed"
	MsgUnsupportedFormat   = "Unsupported format. Use: mp4, avi, mov, webm, mkv"
	MsgPatientNotFound     = "Patient not found"
	MsgPatientExists       = "This child is already registered"
	MsgPatientAccess       = "Access denied to this patient"
	MsgNoCheckins          = "No check-ins found for this patient"
	MsgCrisisNotFound      = "Crisis event not found"
	MsgPlanNotFound        = "Plan not found"
	MsgUserNotFound        = "User not found"
	MsgSelfModification    = "You cannot change your own account here"
)

// respondError writes the single error shape used by every endpoint.
func respondError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}
