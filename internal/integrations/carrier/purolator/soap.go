package purolator

import "encoding/xml"

const (
	namespaceV2   = "http://purolator.com/pws/datatypes/v2"
	namespaceSOAP = "http://schemas.xmlsoap.org/soap/envelope/"
	soapAction    = "http://purolator.com/pws/service/v2/TrackingByPinsOrReferences"
)

type requestEnvelope struct {
	XMLName xml.Name `xml:"soapenv:Envelope"`
	SOAPNS  string   `xml:"xmlns:soapenv,attr"`
	V2NS    string   `xml:"xmlns:v2,attr"`
	Header  struct {
		RequestContext requestContext `xml:"v2:RequestContext"`
	} `xml:"soapenv:Header"`
	Body struct {
		Request trackingRequest `xml:"v2:TrackingByPinsOrReferencesRequest"`
	} `xml:"soapenv:Body"`
}

type requestContext struct {
	Version          string `xml:"v2:Version"`
	Language         string `xml:"v2:Language"`
	GroupID          string `xml:"v2:GroupID"`
	RequestReference string `xml:"v2:RequestReference"`
}

type trackingRequest struct {
	Searches []search `xml:"v2:TrackingSearchCriteria>v2:searches>v2:search"`
}

type search struct {
	TrackingID string `xml:"v2:trackingId"`
}

func newRequest(pin string) requestEnvelope {
	var env requestEnvelope
	env.SOAPNS = namespaceSOAP
	env.V2NS = namespaceV2
	env.Header.RequestContext = requestContext{
		Version:          "2.0",
		Language:         "en",
		GroupID:          "1",
		RequestReference: "TrackingRequest",
	}
	env.Body.Request.Searches = []search{{TrackingID: pin}}
	return env
}

// Response side. Elements are matched by local name so the carrier's
// namespace prefixes do not matter. JSON tags reproduce the nested
// SearchResults snapshot stored on the shipment row.

type responseEnvelope struct {
	Body struct {
		Fault    *soapFault        `xml:"Fault"`
		Response *trackingResponse `xml:"TrackingByPinsOrReferencesResponse"`
	} `xml:"Body"`
}

type soapFault struct {
	Code   string `xml:"faultcode"`
	String string `xml:"faultstring"`
}

type trackingResponse struct {
	ResponseInformation responseInformation `xml:"ResponseInformation" json:"ResponseInformation"`
	SearchResults       searchResults       `xml:"SearchResults" json:"SearchResults"`
}

type responseInformation struct {
	Errors                []responseError `xml:"Errors>Error" json:"Errors,omitempty"`
	InformationalMessages []string        `xml:"InformationalMessages>InformationalMessage>Message" json:"InformationalMessages,omitempty"`
}

type responseError struct {
	Code                  string `xml:"Code" json:"Code"`
	Description           string `xml:"Description" json:"Description"`
	AdditionalInformation string `xml:"AdditionalInformation" json:"AdditionalInformation,omitempty"`
}

type searchResults struct {
	SearchResult []searchResult `xml:"SearchResult" json:"SearchResult"`
}

type searchResult struct {
	TrackingID string    `xml:"searchCriteria>trackingId" json:"trackingId,omitempty"`
	Shipment   *shipment `xml:"Shipment" json:"Shipment,omitempty"`
}

type shipment struct {
	PIN         string       `xml:"pin" json:"pin,omitempty"`
	ServiceName string       `xml:"serviceName" json:"serviceName,omitempty"`
	Status      *status      `xml:"status" json:"status,omitempty"`
	Packages    *packageList `xml:"packages" json:"packages,omitempty"`
	Origin      *address     `xml:"origin" json:"origin,omitempty"`
	Destination *address     `xml:"destination" json:"destination,omitempty"`
}

type status struct {
	Code        string `xml:"code" json:"code"`
	Description string `xml:"description" json:"description"`
}

type packageList struct {
	Package []pkg `xml:"package" json:"package"`
}

type pkg struct {
	PIN                   string  `xml:"pin" json:"pin,omitempty"`
	EstimatedDeliveryDate string  `xml:"estimatedDeliveryDate" json:"estimatedDeliveryDate,omitempty"`
	LastEvent             *event  `xml:"lastEvent" json:"lastEvent,omitempty"`
	Events                []event `xml:"events>event" json:"events,omitempty"`
}

type event struct {
	Code        string `xml:"code" json:"code,omitempty"`
	Description string `xml:"description" json:"description"`
	DateTime    string `xml:"dateTime" json:"dateTime,omitempty"`
	Location    string `xml:"location" json:"location,omitempty"`
}

type address struct {
	City     string `xml:"city" json:"city,omitempty"`
	Province string `xml:"province" json:"province,omitempty"`
	Country  string `xml:"country" json:"country,omitempty"`
}
