package worker

import (
	"github.com/spec-kit/drive-service/internal/events"
	"github.com/spec-kit/drive-service/internal/service"
)

// StartUsageWorker registers the usage counter handlers.
func StartUsageWorker(usageService *service.UsageService, dispatcher events.Dispatcher) {
	if usageService == nil {
		return
	}
	usageService.RegisterHandlers(dispatcher)
}
