package dto

import (
	"strings"

	"github.com/polkiloo/orderledger/internal/domain/model"
)

// MobileMoneyIPN is the mobile-money provider's notification. It arrives as
// query parameters, a form or a JSON body, under several spellings.
type MobileMoneyIPN struct {
	OrderTrackingID        string `json:"OrderTrackingId" form:"OrderTrackingId"`
	OrderTrackingIDS       string `json:"order_tracking_id" form:"order_tracking_id"`
	OrderNotificationType  string `json:"OrderNotificationType" form:"OrderNotificationType"`
	NotificationType       string `json:"NotificationType" form:"NotificationType"`
	NotificationTypeS      string `json:"notification_type" form:"notification_type"`
	OrderMerchantReference string `json:"OrderMerchantReference" form:"OrderMerchantReference"`
	IPNID                  string `json:"IpnId" form:"IpnId"`
	IPNIDS                 string `json:"ipn_id" form:"ipn_id"`
}

// Notification folds the aliases into the use-case input.
func (n MobileMoneyIPN) Notification() model.MobileMoneyNotification {
	return model.MobileMoneyNotification{
		TrackingID:        firstOf(n.OrderTrackingID, n.OrderTrackingIDS),
		NotificationType:  firstOf(n.OrderNotificationType, n.NotificationType, n.NotificationTypeS),
		MerchantReference: strings.TrimSpace(n.OrderMerchantReference),
		IPNID:             firstOf(n.IPNID, n.IPNIDS),
	}
}

// NewMobileMoneyAck builds the acknowledgment for a processed notification.
func NewMobileMoneyAck(n model.MobileMoneyNotification, order *model.Order) MobileMoneyAck {
	ack := MobileMoneyAck{
		OrderNotificationType:  n.NotificationType,
		OrderTrackingID:        n.TrackingID,
		OrderMerchantReference: n.MerchantReference,
		Status:                 200,
	}
	if ack.OrderNotificationType == "" {
		ack.OrderNotificationType = "IPNCHANGE"
	}
	if ack.OrderMerchantReference == "" && order != nil && order.MerchantReference != nil {
		ack.OrderMerchantReference = *order.MerchantReference
	}
	return ack
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
