package commands

import (
	"encoding/base64"
	"fmt"
	"os"
	"strings"
)

// writeCaptchaImage decodes the inline captcha image and writes it to
// path. The service returns either a bare base64 string or a data URL.
func writeCaptchaImage(path, img string) error {
	if i := strings.Index(img, "base64,"); i >= 0 {
		img = img[i+len("base64,"):]
	}

	data, err := base64.StdEncoding.DecodeString(img)
	if err != nil {
		return fmt.Errorf("failed to decode captcha image: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write captcha image: %w", err)
	}

	return nil
}
