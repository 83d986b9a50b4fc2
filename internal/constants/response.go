package constants

// Standard Response Field Keys
const (
	ResponseFieldMessage = "message"
	ResponseFieldDetails = "details"
	ResponseFieldCode    = "code"
	ResponseFieldStatus  = "status"
)

// Response Format Functions
func BuildErrorResponse(code, message string, details any) map[string]any {
	response := map[string]any{
		ResponseFieldCode:    code,
		ResponseFieldMessage: message,
	}

	if details != nil {
		response[ResponseFieldDetails] = details
	}

	return response
}

func BuildSuccessResponse(message string) map[string]any {
	return map[string]any{
		ResponseFieldMessage: message,
	}
}
