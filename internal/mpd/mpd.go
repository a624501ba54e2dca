// Package mpd decodes a DASH Media Presentation Description manifest into
// the in-memory tree the rest of the fetch engine operates on. Decoding
// itself is a thin encoding/xml pass; the addressing semantics that
// interpret this tree live in sibling packages (internal/addressing,
// internal/selector, internal/xlink, internal/baseurl).
package mpd

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"

	"golang.org/x/net/html/charset"
)

// MPD is the root manifest element.
type MPD struct {
	XMLName                   xml.Name           `xml:"MPD"`
	Type                      string             `xml:"type,attr"`
	MediaPresentationDuration string             `xml:"mediaPresentationDuration,attr"`
	Locations                 []string           `xml:"Location"`
	ProgramInformation        ProgramInformation `xml:"ProgramInformation"`
	Periods                   []Period           `xml:"Period"`
}

// ProgramInformation carries descriptive, non-addressing manifest metadata.
type ProgramInformation struct {
	Title  string `xml:"Title"`
	Source string `xml:"Source"`
}

// IsDynamic reports whether the manifest declares itself as a live
// (dynamic) presentation, which this engine does not support fetching.
func (m *MPD) IsDynamic() bool {
	return m.Type == "dynamic"
}

// Period is a contiguous time interval of the presentation.
type Period struct {
	XMLName         xml.Name         `xml:"Period"`
	Duration        string           `xml:"duration,attr"`
	XlinkHref       string           `xml:"http://www.w3.org/1999/xlink href,attr"`
	BaseURLs        []string         `xml:"BaseURL"`
	SegmentList     *SegmentList     `xml:"SegmentList"`
	SegmentTemplate *SegmentTemplate `xml:"SegmentTemplate"`
	SegmentBase     *SegmentBase     `xml:"SegmentBase"`
	AdaptationSets  []AdaptationSet  `xml:"AdaptationSet"`
}

// XLinkHref returns the period's xlink:href, if any.
func (p *Period) XLinkHref() string {
	return p.XlinkHref
}

// AdaptationSet groups interchangeable encodings of one content component.
type AdaptationSet struct {
	XMLName         xml.Name         `xml:"AdaptationSet"`
	Lang            string           `xml:"lang,attr"`
	ContentType     string           `xml:"contentType,attr"`
	MimeType        string           `xml:"mimeType,attr"`
	XlinkHref       string           `xml:"http://www.w3.org/1999/xlink href,attr"`
	BaseURLs        []string         `xml:"BaseURL"`
	SegmentList     *SegmentList     `xml:"SegmentList"`
	SegmentTemplate *SegmentTemplate `xml:"SegmentTemplate"`
	SegmentBase     *SegmentBase     `xml:"SegmentBase"`
	Representations []Representation `xml:"Representation"`
}

// XLinkHref returns the AdaptationSet's xlink:href, if any.
func (a *AdaptationSet) XLinkHref() string {
	return a.XlinkHref
}

// StreamKind classifies an AdaptationSet as audio, video, or neither.
type StreamKind int

const (
	// KindUnknown is neither audio nor video per the classifier rules.
	KindUnknown StreamKind = iota
	KindAudio
	KindVideo
)

// Kind classifies the AdaptationSet via @contentType, falling back to
// @mimeType, matching the spec's audio/video classifier contract.
func (a *AdaptationSet) Kind() StreamKind {
	ct := strings.ToLower(a.ContentType)
	switch {
	case strings.HasPrefix(ct, "audio"):
		return KindAudio
	case strings.HasPrefix(ct, "video"):
		return KindVideo
	}
	mt := strings.ToLower(a.MimeType)
	switch {
	case strings.HasPrefix(mt, "audio/"):
		return KindAudio
	case strings.HasPrefix(mt, "video/"):
		return KindVideo
	}
	return KindUnknown
}

// Representation is a specific encoding: bitrate, codec, resolution.
type Representation struct {
	XMLName         xml.Name         `xml:"Representation"`
	ID              string           `xml:"id,attr"`
	Bandwidth       *uint64          `xml:"bandwidth,attr"`
	XlinkHref       string           `xml:"http://www.w3.org/1999/xlink href,attr"`
	BaseURLs        []string         `xml:"BaseURL"`
	SegmentList     *SegmentList     `xml:"SegmentList"`
	SegmentTemplate *SegmentTemplate `xml:"SegmentTemplate"`
	SegmentBase     *SegmentBase     `xml:"SegmentBase"`
}

// XLinkHref returns the Representation's xlink:href, if any.
func (r *Representation) XLinkHref() string {
	return r.XlinkHref
}

// SegmentList is an explicit list of segment URLs with optional byte ranges.
type SegmentList struct {
	Initialization *Initialization `xml:"Initialization"`
	SegmentURLs    []SegmentURL    `xml:"SegmentURL"`
}

// SegmentURL is one entry of a SegmentList.
type SegmentURL struct {
	Media      string `xml:"media,attr"`
	MediaRange string `xml:"mediaRange,attr"`
	IndexRange string `xml:"indexRange,attr"`
}

// Initialization identifies the initialization segment for SegmentList or
// SegmentBase addressing.
type Initialization struct {
	SourceURL string `xml:"sourceURL,attr"`
	Range     string `xml:"range,attr"`
}

// SegmentTemplate is a URL pattern with placeholders for
// Number/Time/RepresentationID/Bandwidth.
type SegmentTemplate struct {
	Initialization string           `xml:"initialization,attr"`
	Media          string           `xml:"media,attr"`
	Duration       *uint64          `xml:"duration,attr"`
	Timescale      *uint64          `xml:"timescale,attr"`
	StartNumber    *uint64          `xml:"startNumber,attr"`
	SegmentTimeline *SegmentTimeline `xml:"SegmentTimeline"`
}

// SegmentTimeline is an explicit enumeration of segment times/durations.
type SegmentTimeline struct {
	S []S `xml:"S"`
}

// S is one entry of a SegmentTimeline: `<S t? d r?>`.
type S struct {
	T *uint64 `xml:"t,attr"`
	D uint64  `xml:"d,attr"`
	R *int64  `xml:"r,attr"`
}

// SegmentBase is a single-resource addressing mode with an index box inside
// the media file (the index itself is never parsed by this engine).
type SegmentBase struct {
	IndexRange     string          `xml:"indexRange,attr"`
	Initialization *Initialization `xml:"Initialization"`
}

// Parse decodes a DASH manifest's raw XML bytes into an MPD tree.
// A CharsetReader is installed so manifests that declare a non-UTF-8
// encoding (observed in the wild as ISO-8859-1) still decode correctly.
func Parse(data []byte) (*MPD, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = charset.NewReaderLabel

	var m MPD
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("decoding MPD manifest: %w", err)
	}
	return &m, nil
}
