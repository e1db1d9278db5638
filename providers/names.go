package providers

const (
	NameIPInfo  = "ipinfo"
	NameIPWhois = "ipwhois"
	NameIPAPI   = "ipapi"
	NameIPAPICo = "ip-api-com"
)
