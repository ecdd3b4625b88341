package metrics

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// DomainMetrics counts business events. Every Record* method tolerates a
// zero value so tests can pass NewMock.
type DomainMetrics struct {
	usersRegistered        metric.Int64Counter
	logins                 metric.Int64Counter
	internshipsCreated     metric.Int64Counter
	applicationsSubmitted  metric.Int64Counter
	applicationTransitions metric.Int64Counter
	notificationsCreated   metric.Int64Counter
	emailsFailed           metric.Int64Counter
	rateLimited            metric.Int64Counter
}

func NewDomainMetrics(meter metric.Meter) (*DomainMetrics, error) {
	m := &DomainMetrics{}

	counters := []struct {
		dst         *metric.Int64Counter
		name        string
		description string
		unit        string
	}{
		{&m.usersRegistered, "internship_service.users.registered", "Users registered", "{user}"},
		{&m.logins, "internship_service.auth.logins", "Login attempts by outcome", "{login}"},
		{&m.internshipsCreated, "internship_service.internships.created", "Internship postings created", "{internship}"},
		{&m.applicationsSubmitted, "internship_service.applications.submitted", "Applications submitted", "{application}"},
		{&m.applicationTransitions, "internship_service.applications.transitions", "Application status transitions by target status", "{transition}"},
		{&m.notificationsCreated, "internship_service.notifications.created", "Notifications created", "{notification}"},
		{&m.emailsFailed, "internship_service.emails.failed", "Owner emails that could not be delivered", "{email}"},
		{&m.rateLimited, "internship_service.http.rate_limited", "Requests rejected by the rate limiter", "{request}"},
	}

	for _, c := range counters {
		counter, err := meter.Int64Counter(c.name, metric.WithDescription(c.description), metric.WithUnit(c.unit))
		if err != nil {
			return nil, err
		}
		*c.dst = counter
	}

	return m, nil
}

func add(ctx context.Context, c metric.Int64Counter, attrs ...attribute.KeyValue) {
	if c == nil {
		return
	}
	c.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m *DomainMetrics) RecordUserRegistered(ctx context.Context, role string) {
	if m != nil {
		add(ctx, m.usersRegistered, attribute.String("role", role))
	}
}

func (m *DomainMetrics) RecordLogin(ctx context.Context, outcome string) {
	if m != nil {
		add(ctx, m.logins, attribute.String("outcome", outcome))
	}
}

func (m *DomainMetrics) RecordInternshipCreated(ctx context.Context) {
	if m != nil {
		add(ctx, m.internshipsCreated)
	}
}

func (m *DomainMetrics) RecordApplicationSubmitted(ctx context.Context) {
	if m != nil {
		add(ctx, m.applicationsSubmitted)
	}
}

func (m *DomainMetrics) RecordApplicationTransition(ctx context.Context, status string) {
	if m != nil {
		add(ctx, m.applicationTransitions, attribute.String("status", status))
	}
}

func (m *DomainMetrics) RecordNotificationCreated(ctx context.Context, broadcast bool) {
	if m != nil {
		add(ctx, m.notificationsCreated, attribute.Bool("broadcast", broadcast))
	}
}

func (m *DomainMetrics) RecordEmailFailed(ctx context.Context) {
	if m != nil {
		add(ctx, m.emailsFailed)
	}
}

func (m *DomainMetrics) RecordRateLimited(ctx context.Context, route string) {
	if m != nil {
		add(ctx, m.rateLimited, attribute.String("route", route))
	}
}
