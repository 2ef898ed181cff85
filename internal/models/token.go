package models

// TokenDetails holds the details of an issued JWT token pair.
type TokenDetails struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	AccessUUID   string `json:"-"` // Usually not exposed
	RefreshUUID  string `json:"-"` // Usually not exposed
	AtExpires    int64  `json:"at_expires"`
	RtExpires    int64  `json:"rt_expires"`
}
