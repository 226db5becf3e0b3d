package remote

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// DefaultCollection is where the backend keeps one document per agent.
const DefaultCollection = "boids"

// FirestoreSource reads the agent snapshot straight from a Firestore collection,
// one document per agent, document id as key.
type FirestoreSource struct {
	client     *firestore.Client
	collection string
}

// NewFirestoreSource connects to the Firebase project behind credentialsFile.
// An empty credentialsFile falls back to application default credentials and
// an empty projectID to the one in the credentials.
func NewFirestoreSource(ctx context.Context, credentialsFile, projectID, collection string) (*FirestoreSource, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	var conf *firebase.Config
	if projectID != "" {
		conf = &firebase.Config{ProjectID: projectID}
	}

	app, err := firebase.NewApp(ctx, conf, opts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}
	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("error initializing firestore client: %w", err)
	}

	if collection == "" {
		collection = DefaultCollection
	}
	return &FirestoreSource{client: client, collection: collection}, nil
}

// FetchSnapshot reads every document of the collection.
func (s *FirestoreSource) FetchSnapshot(ctx context.Context) (Snapshot, error) {
	iter := s.client.Collection(s.collection).Documents(ctx)
	defer iter.Stop()

	docs := make(map[string]map[string]interface{})
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read collection %s: %w", s.collection, err)
		}
		docs[doc.Ref.ID] = doc.Data()
	}
	return snapshotFromDocuments(docs)
}

// Close releases the Firestore client.
func (s *FirestoreSource) Close() error {
	return s.client.Close()
}

// snapshotFromDocuments runs raw documents through the same validation as
// HTTP payloads, so both sources reject the same malformed data.
func snapshotFromDocuments(docs map[string]map[string]interface{}) (Snapshot, error) {
	body, err := json.Marshal(docs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}
	return DecodeSnapshot(body)
}
