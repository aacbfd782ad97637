package client

import (
	"context"

	"github.com/sirupsen/logrus"
)

// InjectLoggingMetadata injects client metadata into a logrus log entry
func InjectLoggingMetadata(ctx context.Context, log *logrus.Entry) *logrus.Entry {
	md, ok := FromContext(ctx)
	if !ok {
		return log
	}

	log = log.WithField("request_id", md.RequestID)
	if len(md.IP) > 0 {
		log = log.WithField("client_ip", md.IP)
	}
	if len(md.UserAgent) > 0 {
		log = log.WithField("user_agent", md.UserAgent)
	}
	return log
}
