// Package push delivers due notifications to the user's devices.
package push

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"github.com/example/care-alarms/internal/notifier"
)

// Sender is the part of the FCM messaging client used for delivery.
type Sender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// FCMDeliverer sends notifications to an FCM topic the devices subscribe to.
type FCMDeliverer struct {
	sender Sender
	topic  string
	logger *slog.Logger
}

// NewFCMDeliverer initialises a Firebase app from a service-account file.
func NewFCMDeliverer(ctx context.Context, credentialsPath, topic string, logger *slog.Logger) (*FCMDeliverer, error) {
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsPath))
	if err != nil {
		return nil, fmt.Errorf("push: initialise firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("push: messaging client: %w", err)
	}
	return NewFCMDelivererWithSender(client, topic, logger), nil
}

// NewFCMDelivererWithSender wraps an existing sender.
func NewFCMDelivererWithSender(sender Sender, topic string, logger *slog.Logger) *FCMDeliverer {
	if logger == nil {
		logger = slog.Default()
	}
	return &FCMDeliverer{
		sender: sender,
		topic:  topic,
		logger: logger.With(slog.String("component", "push"), slog.String("transport", "fcm")),
	}
}

// Ready implements notifier.Deliverer.
func (d *FCMDeliverer) Ready(context.Context) error {
	if d.sender == nil {
		return errors.New("push: fcm client not initialised")
	}
	if d.topic == "" {
		return errors.New("push: fcm topic not configured")
	}
	return nil
}

// Deliver implements notifier.Deliverer.
func (d *FCMDeliverer) Deliver(ctx context.Context, delivery notifier.Delivery) error {
	if err := d.Ready(ctx); err != nil {
		return err
	}
	messageID, err := d.sender.Send(ctx, buildMessage(d.topic, delivery))
	if err != nil {
		return fmt.Errorf("push: send %s: %w", delivery.Identifier, err)
	}
	d.logger.InfoContext(ctx, "notification sent",
		slog.String("identifier", delivery.Identifier),
		slog.String("message_id", messageID))
	return nil
}

func buildMessage(topic string, delivery notifier.Delivery) *messaging.Message {
	content := delivery.Content
	data := make(map[string]string, len(content.Data)+2)
	for key, value := range content.Data {
		data[key] = value
	}
	data["identifier"] = delivery.Identifier
	data["firedAt"] = strconv.FormatInt(delivery.FiredAt.UnixMilli(), 10)

	sound := content.Sound
	if sound == "" {
		sound = "default"
	}

	android := &messaging.AndroidNotification{
		ChannelID:    content.ChannelID,
		Sound:        sound,
		DefaultSound: sound == "default",
		Sticky:       content.Sticky,
	}
	if delivery.Channel.LightColor != "" {
		android.LightSettings = &messaging.LightSettings{
			Color:                  delivery.Channel.LightColor,
			LightOnDurationMillis:  500,
			LightOffDurationMillis: 500,
		}
	}
	if pattern := delivery.Channel.VibrationPattern; len(pattern) > 0 {
		android.VibrateTimingMillis = make([]int64, len(pattern))
		for i, ms := range pattern {
			android.VibrateTimingMillis[i] = int64(ms)
		}
	}
	if content.Priority == notifier.PriorityHigh || content.Priority == notifier.PriorityMax {
		android.Priority = messaging.PriorityMax
	}
	if delivery.Channel.LockscreenVisibility == "public" {
		android.Visibility = messaging.VisibilityPublic
	}

	return &messaging.Message{
		Topic: topic,
		Notification: &messaging.Notification{
			Title: content.Title,
			Body:  content.Body,
		},
		Data: data,
		Android: &messaging.AndroidConfig{
			Priority:     "high",
			Notification: android,
		},
		APNS: &messaging.APNSConfig{
			Headers: map[string]string{"apns-priority": "10"},
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Sound: sound,
					Alert: &messaging.ApsAlert{Title: content.Title, Body: content.Body},
				},
			},
		},
	}
}
