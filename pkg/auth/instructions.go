package auth

import (
	"fmt"
	"io"
	"strings"
)

// RegistrationURL is where Imgur API applications are registered
const RegistrationURL = "https://api.imgur.com/oauth2/addclient"

// WriteRegistrationGuide explains how to obtain a client id and secret
func WriteRegistrationGuide(w io.Writer) {
	fmt.Fprintln(w, strings.Repeat("=", 72))
	fmt.Fprintln(w, "IMGUR API CREDENTIALS")
	fmt.Fprintln(w, strings.Repeat("=", 72))
	fmt.Fprintln(w)
	fmt.Fprintln(w, "imgurdl reads albums through the Imgur API and needs an application")
	fmt.Fprintln(w, "client id and client secret.")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  1. Sign in to Imgur and open %s\n", RegistrationURL)
	fmt.Fprintln(w, "  2. Choose \"Anonymous usage without user authorization\"")
	fmt.Fprintln(w, "  3. Fill in a name and e-mail, then submit")
	fmt.Fprintln(w, "  4. Copy the Client ID and Client secret shown")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "The values are kept in your system keychain, or in an encrypted file")
	fmt.Fprintln(w, "when no keychain is available. They can also be put in config.yaml as")
	fmt.Fprintln(w, "imgur_client_id and imgur_client_secret.")
	fmt.Fprintln(w, strings.Repeat("=", 72))
	fmt.Fprintln(w)
}
