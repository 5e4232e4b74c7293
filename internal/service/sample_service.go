package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"

	"go.uber.org/zap"

	"github.com/po4yka/trailglass-sub007/internal/models"
	"github.com/po4yka/trailglass-sub007/internal/realtime"
	"github.com/po4yka/trailglass-sub007/internal/repository"
)

// AppendResult summarizes one sample upload
type AppendResult struct {
	Accepted   int              `json:"accepted"`
	Duplicates int              `json:"duplicates"`
	Rejected   []RejectedSample `json:"rejected"`
	Events     []realtime.Event `json:"events"`
}

// RejectedSample explains why an uploaded sample was dropped
type RejectedSample struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// SampleService ingests location samples and feeds the live detectors
type SampleService struct {
	repo   *repository.SampleRepository
	live   *realtime.Manager
	logger *zap.Logger
}

// NewSampleService creates a new sample service. live may be nil.
func NewSampleService(repo *repository.SampleRepository, live *realtime.Manager, logger *zap.Logger) *SampleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SampleService{repo: repo, live: live, logger: logger.Named("samples")}
}

// ValidateSample returns why a sample is unusable, or "" when it is fine
func ValidateSample(s models.LocationSample) string {
	switch {
	case s.Timestamp.IsZero():
		return "missing timestamp"
	case math.IsNaN(s.Latitude) || s.Latitude < -90 || s.Latitude > 90:
		return "latitude out of range"
	case math.IsNaN(s.Longitude) || s.Longitude < -180 || s.Longitude > 180:
		return "longitude out of range"
	case math.IsNaN(s.Accuracy) || s.Accuracy < 0:
		return "negative accuracy"
	case s.DeviceID == "":
		return "missing device id"
	case !s.Source.Valid():
		return fmt.Sprintf("unknown source %q", s.Source)
	}
	return ""
}

// Append validates and stores samples for userID, then feeds the accepted
// ones to the live session of their device in time order.
func (s *SampleService) Append(ctx context.Context, userID string, samples []models.LocationSample) (*AppendResult, error) {
	res := &AppendResult{Rejected: []RejectedSample{}, Events: []realtime.Event{}}

	valid := make([]models.LocationSample, 0, len(samples))
	for i, smp := range samples {
		if smp.Source == "" {
			smp.Source = models.SourceGPS
		}
		if reason := ValidateSample(smp); reason != "" {
			res.Rejected = append(res.Rejected, RejectedSample{Index: i, Reason: reason})
			continue
		}
		smp.UserID = userID
		smp.Timestamp = smp.Timestamp.UTC()
		if smp.ID == "" {
			smp.ID = models.ContentID("sample", userID, smp.DeviceID, strconv.FormatInt(smp.Timestamp.UnixMilli(), 10))
		}
		valid = append(valid, smp)
	}

	inserted, err := s.repo.Append(ctx, valid)
	if err != nil {
		return nil, err
	}
	res.Accepted = inserted
	res.Duplicates = len(valid) - inserted

	if s.live == nil || len(valid) == 0 {
		return res, nil
	}

	byDevice := make(map[string][]models.LocationSample)
	for _, smp := range valid {
		byDevice[smp.DeviceID] = append(byDevice[smp.DeviceID], smp)
	}
	devices := make([]string, 0, len(byDevice))
	for d := range byDevice {
		devices = append(devices, d)
	}
	sort.Strings(devices)

	for _, d := range devices {
		events, err := s.live.Feed(ctx, realtime.SessionKey{UserID: userID, DeviceID: d}, byDevice[d])
		if err != nil {
			// samples are stored; live detection catches up on the next upload
			s.logger.Warn("Failed to feed live session",
				zap.String("user_id", userID), zap.String("device_id", d), zap.Error(err))
			continue
		}
		res.Events = append(res.Events, events...)
	}
	return res, nil
}

// ResetSession returns a device's live session to Idle
func (s *SampleService) ResetSession(userID, deviceID string) {
	if s.live != nil {
		s.live.Reset(realtime.SessionKey{UserID: userID, DeviceID: deviceID})
	}
}
