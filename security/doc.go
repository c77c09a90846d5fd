// Package security holds transport security settings for the HTTP client.
//
//	client:
//	  tls:
//	    ca_file: /etc/reqkit/ca.pem
//	    cert_file: /etc/reqkit/client.pem
//	    key_file: /etc/reqkit/client-key.pem
package security
