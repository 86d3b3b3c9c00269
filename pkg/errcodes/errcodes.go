package errcodes

import "git.appkode.ru/pub/go/failure"

const (
	InternalServerError failure.ErrorCode = "InternalServerError"
	TimeoutExceeded     failure.ErrorCode = "TimeoutExceeded"
	Forbidden           failure.ErrorCode = "Forbidden"
	ValidationError     failure.ErrorCode = "ValidationError"
	NotFound            failure.ErrorCode = "NotFound"

	// Listing parsing
	ListingMissingField   failure.ErrorCode = "ListingMissingField"
	ListingPolicyRejected failure.ErrorCode = "ListingPolicyRejected"

	// Purchase flow
	OfferNotFound       failure.ErrorCode = "OfferNotFound"
	PurchaseNotFound    failure.ErrorCode = "PurchaseNotFound"
	PaymentLinkFailed   failure.ErrorCode = "PaymentLinkFailed"
	InvalidPaymentProof failure.ErrorCode = "InvalidPaymentProof"
	InvalidRail         failure.ErrorCode = "InvalidRail"
	RailNotConfigured   failure.ErrorCode = "RailNotConfigured"
)
