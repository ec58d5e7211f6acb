// Package identity counts users registered with the identity provider.
//
// The provider's management API returns every user with its creation time
// (epoch milliseconds). Client reports the total and the number of users
// created within a period, and doubles as the identity_users gauge.
package identity
