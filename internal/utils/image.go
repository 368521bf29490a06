package utils

import "strings"

// UploadsPrefix is the URL path under which uploaded images are served.
const UploadsPrefix = "/uploads"

// ResolveImageURL turns a stored image value into an absolute URL.
// Values already starting with "http" are returned unchanged.
func ResolveImageURL(baseURL, image string) string {
	image = strings.TrimSpace(image)
	if image == "" || strings.HasPrefix(image, "http") {
		return image
	}
	return strings.TrimRight(baseURL, "/") + UploadsPrefix + "/" + strings.TrimLeft(image, "/")
}
