package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/harentsoaR/sehaty-api/internal/apperrors"
	"github.com/harentsoaR/sehaty-api/internal/models"
)

const (
	usersCollection         = "users"
	prescriptionsCollection = "prescriptions"
	notificationsCollection = "notifications"
)

// NewMongo builds the Mongo-backed Store over db.
func NewMongo(db *mongo.Database) *Store {
	return &Store{
		Users:         &mongoUsers{col: db.Collection(usersCollection)},
		Prescriptions: &mongoPrescriptions{col: db.Collection(prescriptionsCollection)},
		Notifications: &mongoNotifications{col: db.Collection(notificationsCollection)},
	}
}

// EnsureIndexes creates the indexes the repositories rely on. The unique
// email index is what turns concurrent duplicate registrations into errors.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(usersCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "appointments._id", Value: 1}}},
		{Keys: bson.D{{Key: "appointments.doctorId", Value: 1}}},
		{Keys: bson.D{{Key: "role", Value: 1}, {Key: "specialty", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("users indexes: %w", err)
	}
	_, err = db.Collection(prescriptionsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("prescriptions indexes: %w", err)
	}
	_, err = db.Collection(notificationsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("notifications indexes: %w", err)
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return apperrors.ErrNotFound
	}
	return err
}

// --- users ---

type mongoUsers struct {
	col *mongo.Collection
}

func (r *mongoUsers) Create(ctx context.Context, u *models.User) error {
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	// $push fails on a null field, so the embedded arrays must exist up front.
	initEmbedded(u)
	_, err := r.col.InsertOne(ctx, u)
	if mongo.IsDuplicateKeyError(err) {
		return apperrors.ErrEmailTaken
	}
	return err
}

func (r *mongoUsers) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (r *mongoUsers) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := r.col.FindOne(ctx, bson.M{"email": strings.ToLower(email)}).Decode(&u); err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (r *mongoUsers) UpdateProfile(ctx context.Context, id primitive.ObjectID, upd ProfileUpdate) error {
	set := bson.M{"updatedAt": time.Now().UTC()}
	put := func(key string, ok bool, v interface{}) {
		if ok {
			set[key] = v
		}
	}
	put("name", upd.Name != nil, deref(upd.Name))
	put("phone", upd.Phone != nil, deref(upd.Phone))
	put("dateOfBirth", upd.DateOfBirth != nil, upd.DateOfBirth)
	put("gender", upd.Gender != nil, deref(upd.Gender))
	put("bloodType", upd.BloodType != nil, deref(upd.BloodType))
	put("specialty", upd.Specialty != nil, deref(upd.Specialty))
	put("licenseNumber", upd.LicenseNumber != nil, deref(upd.LicenseNumber))
	if upd.ConsultationFee != nil {
		set["consultationFee"] = *upd.ConsultationFee
	}
	put("address", upd.Address != nil, deref(upd.Address))
	put("description", upd.Description != nil, deref(upd.Description))

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *mongoUsers) ListProviders(ctx context.Context, f ProviderFilter) ([]models.User, error) {
	filter := bson.M{"role": bson.M{"$in": []string{models.RoleDoctor, models.RoleClinic}}}
	if f.Role != "" {
		filter["role"] = f.Role
	}
	if f.Specialty != "" {
		filter["specialty"] = bson.M{"$regex": "^" + regexp.QuoteMeta(f.Specialty) + "$", "$options": "i"}
	}
	if f.Query != "" {
		filter["name"] = bson.M{"$regex": regexp.QuoteMeta(f.Query), "$options": "i"}
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "name", Value: 1}}).
		SetProjection(bson.M{"password": 0, "appointments": 0, "prescriptions": 0, "healthRecords": 0, "recentActivity": 0})
	if f.Limit > 0 {
		opts.SetLimit(int64(f.Limit))
	}

	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	users := make([]models.User, 0)
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *mongoUsers) push(ctx context.Context, userID primitive.ObjectID, field string, v interface{}) error {
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{
		"$push": bson.M{field: v},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *mongoUsers) PushAppointment(ctx context.Context, userID primitive.ObjectID, a models.Appointment) error {
	return r.push(ctx, userID, "appointments", a)
}

func (r *mongoUsers) PushActivity(ctx context.Context, userID primitive.ObjectID, a models.Activity) error {
	return r.push(ctx, userID, "recentActivity", a)
}

func (r *mongoUsers) PushPrescription(ctx context.Context, userID primitive.ObjectID, p models.EmbeddedPrescription) error {
	return r.push(ctx, userID, "prescriptions", p)
}

func (r *mongoUsers) PushHealthRecord(ctx context.Context, userID primitive.ObjectID, rec models.HealthRecord) error {
	return r.push(ctx, userID, "healthRecords", rec)
}

func (r *mongoUsers) FindAppointment(ctx context.Context, appointmentID primitive.ObjectID) (*AppointmentRef, error) {
	var doc struct {
		ID           primitive.ObjectID   `bson:"_id"`
		Appointments []models.Appointment `bson:"appointments"`
	}
	opts := options.FindOne().SetProjection(bson.M{"appointments.$": 1})
	err := r.col.FindOne(ctx, bson.M{"appointments._id": appointmentID}, opts).Decode(&doc)
	if err != nil {
		return nil, notFound(err)
	}
	if len(doc.Appointments) == 0 {
		return nil, apperrors.ErrNotFound
	}
	return &AppointmentRef{OwnerID: doc.ID, Appointment: doc.Appointments[0]}, nil
}

func (r *mongoUsers) CancelAppointment(ctx context.Context, ownerID, appointmentID primitive.ObjectID, fromStatus string, c Cancellation) error {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": ownerID, "appointments": bson.M{"$elemMatch": bson.M{"_id": appointmentID, "status": fromStatus}}},
		bson.M{"$set": bson.M{
			"appointments.$.status":             models.StatusCancelled,
			"appointments.$.cancelledAt":        c.At,
			"appointments.$.cancelledBy":        c.By,
			"appointments.$.cancellationReason": c.Reason,
			"appointments.$.cancellationFee":    c.Fee,
			"updatedAt":                         time.Now().UTC(),
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *mongoUsers) MarkReminderSent(ctx context.Context, ownerID, appointmentID primitive.ObjectID) (bool, error) {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": ownerID, "appointments": bson.M{"$elemMatch": bson.M{"_id": appointmentID, "status": models.StatusScheduled}}},
		bson.M{"$set": bson.M{"appointments.$.reminderSent": true}},
	)
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

func (r *mongoUsers) ListDoctorAppointments(ctx context.Context, doctorID primitive.ObjectID) ([]models.Appointment, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"appointments.doctorId": doctorID}}},
		{{Key: "$unwind", Value: "$appointments"}},
		{{Key: "$match", Value: bson.M{"appointments.doctorId": doctorID}}},
		{{Key: "$replaceRoot", Value: bson.M{"newRoot": "$appointments"}}},
		{{Key: "$sort", Value: bson.D{{Key: "date", Value: 1}, {Key: "time", Value: 1}}}},
	}
	cursor, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := make([]models.Appointment, 0)
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *mongoUsers) ListScheduledBetween(ctx context.Context, from, to time.Time) ([]AppointmentRef, error) {
	window := bson.M{"date": bson.M{"$gte": from, "$lt": to}, "status": models.StatusScheduled}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"appointments": bson.M{"$elemMatch": window}}}},
		{{Key: "$unwind", Value: "$appointments"}},
		{{Key: "$match", Value: bson.M{
			"appointments.date":   bson.M{"$gte": from, "$lt": to},
			"appointments.status": models.StatusScheduled,
		}}},
		{{Key: "$project", Value: bson.M{"_id": 1, "appointment": "$appointments"}}},
	}
	cursor, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		ID          primitive.ObjectID `bson:"_id"`
		Appointment models.Appointment `bson:"appointment"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	out := make([]AppointmentRef, 0, len(rows))
	for _, row := range rows {
		out = append(out, AppointmentRef{OwnerID: row.ID, Appointment: row.Appointment})
	}
	return out, nil
}

// --- prescriptions ---

type mongoPrescriptions struct {
	col *mongo.Collection
}

func (r *mongoPrescriptions) Create(ctx context.Context, p *models.Prescription) error {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	_, err := r.col.InsertOne(ctx, p)
	return err
}

func (r *mongoPrescriptions) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Prescription, error) {
	var p models.Prescription
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (r *mongoPrescriptions) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Prescription, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.col.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := make([]models.Prescription, 0)
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *mongoPrescriptions) UpdateStatus(ctx context.Context, id primitive.ObjectID, status string, at time.Time) error {
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"status": status, "updatedAt": at}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// --- notifications ---

type mongoNotifications struct {
	col *mongo.Collection
}

func (r *mongoNotifications) Create(ctx context.Context, n *models.Notification) error {
	if n.ID.IsZero() {
		n.ID = primitive.NewObjectID()
	}
	_, err := r.col.InsertOne(ctx, n)
	return err
}

func (r *mongoNotifications) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Notification, error) {
	var n models.Notification
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&n); err != nil {
		return nil, notFound(err)
	}
	return &n, nil
}

func (r *mongoNotifications) ListByUser(ctx context.Context, userID primitive.ObjectID, limit int) ([]models.Notification, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cursor, err := r.col.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := make([]models.Notification, 0)
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *mongoNotifications) CountUnread(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	return r.col.CountDocuments(ctx, bson.M{"userId": userID, "read": false})
}

// MarkRead only ever sets read to true.
func (r *mongoNotifications) MarkRead(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"read": true}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *mongoNotifications) MarkAllRead(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	res, err := r.col.UpdateMany(ctx, bson.M{"userId": userID, "read": false}, bson.M{"$set": bson.M{"read": true}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
