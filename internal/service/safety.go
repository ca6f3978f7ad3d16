package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/guardian/guardian/internal/metrics"
	"github.com/guardian/guardian/internal/model"
	"github.com/guardian/guardian/internal/repository"
)

const (
	// DefaultFeedLimit is the number of alerts or messages returned when
	// the caller does not ask for a specific amount.
	DefaultFeedLimit = 10
	// MaxFeedLimit caps a single feed page.
	MaxFeedLimit = 100
	// MaxMessageLength is the longest quick message, in characters.
	MaxMessageLength = 280
	// DefaultLowBatteryThreshold is the battery percentage at or below
	// which a location report raises a low battery alert.
	DefaultLowBatteryThreshold = 15
)

// LocationInput is one position report from a child device.
type LocationInput struct {
	Latitude  float64
	Longitude float64
	Battery   *int
	Speed     *float64
}

// SOSInput is an emergency alert. Coordinates are optional but must be
// given together.
type SOSInput struct {
	Latitude  *float64
	Longitude *float64
}

// MessageInput is a quick message. When the child's position is known it is
// appended to the text.
type MessageInput struct {
	Text      string
	Latitude  *float64
	Longitude *float64
}

// LocationResult is a stored location and any alert it raised.
type LocationResult struct {
	Point *model.LocationPoint
	Alert *model.Alert
}

// SafetyService handles the alert and quick message feed between children
// and their parents.
type SafetyService struct {
	profiles   ProfileStore
	relations  RelationStore
	store      SafetyStore
	cache      ChildrenCache
	metrics    metrics.Recorder
	logger     *slog.Logger
	lowBattery int
	now        func() time.Time
}

// NewSafetyService creates a new SafetyService.
func NewSafetyService(profiles ProfileStore, relations RelationStore, store SafetyStore, cache ChildrenCache, lowBattery int, recorder metrics.Recorder, logger *slog.Logger) *SafetyService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SafetyService{
		profiles:   profiles,
		relations:  relations,
		store:      store,
		cache:      cache,
		metrics:    recorder,
		logger:     logger,
		lowBattery: lowBattery,
		now:        time.Now,
	}
}

// ListAlerts returns the newest alerts of all children linked to the caller.
func (s *SafetyService) ListAlerts(ctx context.Context, caller *model.Caller, limit int) ([]*model.Alert, error) {
	childIDs, err := s.linkedChildren(ctx, caller)
	if err != nil {
		return nil, err
	}
	if len(childIDs) == 0 {
		return []*model.Alert{}, nil
	}

	alerts, err := s.store.ListAlerts(ctx, childIDs, clampLimit(limit))
	if err != nil {
		return nil, upstream("failed to list alerts", err)
	}
	return alerts, nil
}

// MarkAlertRead marks one alert of a linked child as read.
func (s *SafetyService) MarkAlertRead(ctx context.Context, caller *model.Caller, id string) error {
	childIDs, err := s.linkedChildren(ctx, caller)
	if err != nil {
		return err
	}

	if err := s.store.MarkAlertRead(ctx, id, childIDs); err != nil {
		if errors.Is(err, repository.ErrAlertNotFound) {
			return newError(KindNotFound, "alert not found")
		}
		return upstream("failed to mark alert read", err)
	}
	return nil
}

// ListMessages returns the newest quick messages of all children linked
// to the caller.
func (s *SafetyService) ListMessages(ctx context.Context, caller *model.Caller, limit int) ([]*model.QuickMessage, error) {
	childIDs, err := s.linkedChildren(ctx, caller)
	if err != nil {
		return nil, err
	}
	if len(childIDs) == 0 {
		return []*model.QuickMessage{}, nil
	}

	messages, err := s.store.ListMessages(ctx, childIDs, clampLimit(limit))
	if err != nil {
		return nil, upstream("failed to list messages", err)
	}
	return messages, nil
}

// MarkMessageRead marks one quick message of a linked child as read.
func (s *SafetyService) MarkMessageRead(ctx context.Context, caller *model.Caller, id string) error {
	childIDs, err := s.linkedChildren(ctx, caller)
	if err != nil {
		return err
	}

	if err := s.store.MarkMessageRead(ctx, id, childIDs); err != nil {
		if errors.Is(err, repository.ErrMessageNotFound) {
			return newError(KindNotFound, "message not found")
		}
		return upstream("failed to mark message read", err)
	}
	return nil
}

// SendMessage stores a quick message from the calling child.
func (s *SafetyService) SendMessage(ctx context.Context, caller *model.Caller, input MessageInput) (*model.QuickMessage, error) {
	if _, err := requireRole(ctx, s.profiles, caller, model.RoleChild); err != nil {
		return nil, err
	}

	text := strings.TrimSpace(input.Text)
	if text == "" {
		return nil, newError(KindInvalidArgument, "message is required")
	}
	if utf8.RuneCountInString(text) > MaxMessageLength {
		return nil, newError(KindInvalidArgument, fmt.Sprintf("message must be at most %d characters", MaxMessageLength))
	}
	if (input.Latitude == nil) != (input.Longitude == nil) {
		return nil, newError(KindInvalidArgument, "latitude and longitude must be given together")
	}
	if input.Latitude != nil {
		if err := model.ValidateCoordinates(*input.Latitude, *input.Longitude); err != nil {
			return nil, newError(KindInvalidArgument, err.Error())
		}
		text += fmt.Sprintf(" (at %.4f, %.4f)", *input.Latitude, *input.Longitude)
	}

	msg := &model.QuickMessage{
		ID:      newID(),
		ChildID: caller.UserID,
		Message: text,
		SentAt:  s.now().UTC(),
	}
	if err := s.store.CreateMessage(ctx, msg); err != nil {
		return nil, upstream("failed to send message", err)
	}

	s.metrics.IncMessageSent()
	return msg, nil
}

// RaiseSOS records an emergency alert from the calling child, along with
// its position when one is known.
func (s *SafetyService) RaiseSOS(ctx context.Context, caller *model.Caller, input SOSInput) (*model.Alert, error) {
	if _, err := requireRole(ctx, s.profiles, caller, model.RoleChild); err != nil {
		return nil, err
	}

	if (input.Latitude == nil) != (input.Longitude == nil) {
		return nil, newError(KindInvalidArgument, "latitude and longitude must be given together")
	}

	now := s.now().UTC()
	message := "Emergency SOS alert"

	if input.Latitude != nil {
		if err := model.ValidateCoordinates(*input.Latitude, *input.Longitude); err != nil {
			return nil, newError(KindInvalidArgument, err.Error())
		}

		point := &model.LocationPoint{
			ChildID:    caller.UserID,
			Latitude:   *input.Latitude,
			Longitude:  *input.Longitude,
			RecordedAt: now,
		}
		if err := s.store.InsertLocation(ctx, point); err != nil {
			return nil, upstream("failed to record SOS location", err)
		}
		message = sosMessage(*input.Latitude, *input.Longitude)
	}

	alert, err := s.raiseAlert(ctx, caller.UserID, model.AlertSOS, message, now)
	if err != nil {
		return nil, err
	}

	s.logger.Warn("sos_raised", slog.String("child_id", caller.UserID), slog.String("alert_id", alert.ID))
	s.invalidateParents(ctx, caller.UserID)
	return alert, nil
}

// ReportLocation stores a position report from the calling child. A battery
// level at or below the low battery threshold raises an alert.
func (s *SafetyService) ReportLocation(ctx context.Context, caller *model.Caller, input LocationInput) (*LocationResult, error) {
	if _, err := requireRole(ctx, s.profiles, caller, model.RoleChild); err != nil {
		return nil, err
	}

	if err := model.ValidateCoordinates(input.Latitude, input.Longitude); err != nil {
		return nil, newError(KindInvalidArgument, err.Error())
	}
	if input.Battery != nil && (*input.Battery < 0 || *input.Battery > 100) {
		return nil, newError(KindInvalidArgument, "battery_level must be between 0 and 100")
	}
	if input.Speed != nil && *input.Speed < 0 {
		return nil, newError(KindInvalidArgument, "speed must not be negative")
	}

	now := s.now().UTC()
	point := &model.LocationPoint{
		ChildID:    caller.UserID,
		Latitude:   input.Latitude,
		Longitude:  input.Longitude,
		Battery:    input.Battery,
		Speed:      input.Speed,
		RecordedAt: now,
	}
	if err := s.store.InsertLocation(ctx, point); err != nil {
		return nil, upstream("failed to record location", err)
	}

	result := &LocationResult{Point: point}
	if input.Battery != nil && *input.Battery <= s.lowBattery {
		alert, err := s.raiseAlert(ctx, caller.UserID, model.AlertLowBattery,
			fmt.Sprintf("Battery level low: %d%%", *input.Battery), now)
		if err != nil {
			return nil, err
		}
		result.Alert = alert
	}

	s.invalidateParents(ctx, caller.UserID)
	return result, nil
}

func (s *SafetyService) raiseAlert(ctx context.Context, childID string, alertType model.AlertType, message string, at time.Time) (*model.Alert, error) {
	alert := &model.Alert{
		ID:        newID(),
		ChildID:   childID,
		Type:      alertType,
		Message:   message,
		CreatedAt: at,
	}
	if err := s.store.CreateAlert(ctx, alert); err != nil {
		return nil, upstream("failed to raise alert", err)
	}
	s.metrics.IncAlertRaised(string(alertType))
	return alert, nil
}

// linkedChildren checks that caller is a parent and returns its children.
func (s *SafetyService) linkedChildren(ctx context.Context, caller *model.Caller) ([]string, error) {
	if _, err := requireRole(ctx, s.profiles, caller, model.RoleParent); err != nil {
		return nil, err
	}
	childIDs, err := s.relations.ListChildIDs(ctx, caller.UserID)
	if err != nil {
		return nil, upstream("failed to list children", err)
	}
	return childIDs, nil
}

// invalidateParents drops cached children lists that show childID's position.
func (s *SafetyService) invalidateParents(ctx context.Context, childID string) {
	parentIDs, err := s.relations.ListParentIDs(ctx, childID)
	if err != nil {
		s.logger.Warn("failed to list parents", slog.String("child_id", childID), slog.String("error", err.Error()))
		return
	}
	if err := s.cache.InvalidateChildren(ctx, parentIDs...); err != nil {
		s.logger.Warn("children cache invalidation failed", slog.String("error", err.Error()))
	}
}

func sosMessage(lat, lng float64) string {
	return fmt.Sprintf("Emergency SOS alert from location: %.4f, %.4f", lat, lng)
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultFeedLimit
	}
	if limit > MaxFeedLimit {
		return MaxFeedLimit
	}
	return limit
}
