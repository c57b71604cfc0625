package reviewer

import "time"

// Address is the postal address embedded in a Business document.
type Address struct {
	Line1 string `json:"line1" bson:"line1"`
	Line2 string `json:"line2,omitempty" bson:"line2,omitempty"`
	City  string `json:"city" bson:"city"`
	State string `json:"state" bson:"state"`
	Zip   string `json:"zip" bson:"zip"`
}

// Business is a reviewable place. Stored whole in the Businesses collection.
type Business struct {
	ID      string  `json:"id" bson:"_id"`
	Name    string  `json:"name" bson:"name"`
	Address Address `json:"address" bson:"address"`
	Phone   string  `json:"phone,omitempty" bson:"phone,omitempty"`
	Hours   string  `json:"hours,omitempty" bson:"hours,omitempty"`
	Type    string  `json:"type,omitempty" bson:"type,omitempty"`
	Photo   string  `json:"photo,omitempty" bson:"photo,omitempty"`
}

// Video is attached to a review by the media pipeline, never by review authors.
type Video struct {
	HLSURL       string `json:"hlsUrl" bson:"hlsUrl"`
	ThumbnailURL string `json:"thumbnailUrl,omitempty" bson:"thumbnailUrl,omitempty"`
	// ObjectKey locates the source upload in object storage, when there is one.
	ObjectKey string `json:"objectKey,omitempty" bson:"objectKey,omitempty"`
}

// Review is a single author's review of a business.
type Review struct {
	ID           string    `json:"id" bson:"_id"`
	BusinessID   string    `json:"businessId" bson:"businessId"`
	BusinessName string    `json:"businessName,omitempty" bson:"businessName,omitempty"`
	AuthorID     string    `json:"authorId" bson:"authorId"`
	Author       string    `json:"author,omitempty" bson:"author,omitempty"`
	ReviewText   string    `json:"reviewText" bson:"reviewText"`
	Rating       int       `json:"rating" bson:"rating"`
	Date         time.Time `json:"date" bson:"date"`
	Photos       []string  `json:"photos,omitempty" bson:"photos,omitempty"`
	Videos       []Video   `json:"videos,omitempty" bson:"videos,omitempty"`
}
