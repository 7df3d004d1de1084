package jdresume

import (
	"time"

	"github.com/gin-gonic/gin"
)

type saveRequest struct {
	JdText     string `json:"jdText"`
	ResumeText string `json:"resumeText"`
}

func toResponse(rec JdResumeText) gin.H {
	return gin.H{
		"id":         rec.ID,
		"jdText":     rec.JdText,
		"resumeText": rec.ResumeText,
		"updatedAt":  rec.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
